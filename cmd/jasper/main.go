// Command jasper fetches rendered reports from a JasperServer.
package main

import (
	"os"

	"github.com/adamwoolhether/jasper/cli"
)

func main() {
	os.Exit(cli.Main())
}
