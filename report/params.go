package report

import (
	"maps"
	"net/url"
	"slices"
	"strings"
)

// Param is a single report input control value.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered set of report parameters, rendered into the
// query string in the order given. A nil Params means no query string.
// Keys may repeat, which JasperServer reads as a multi-valued control.
type Params []Param

// ParamsFromMap converts m to Params with keys in sorted order,
// so the resulting URL is deterministic.
func ParamsFromMap(m map[string]string) Params {
	if len(m) == 0 {
		return nil
	}

	p := make(Params, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		p = append(p, Param{Key: k, Value: m[k]})
	}

	return p
}

// Add returns p with key=value appended.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Set returns a copy of p in which the first occurrence of key holds
// value, keeping its position. key is appended if absent.
func (p Params) Set(key, value string) Params {
	out := slices.Clone(p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}

	return append(out, Param{Key: key, Value: value})
}

// Get returns the first value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}

	return "", false
}

// Encode renders p as key=value pairs joined by '&', percent-encoding
// keys and values. Spaces become %20.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(queryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(queryEscape(kv.Value))
	}

	return sb.String()
}

// queryEscape is url.QueryEscape with spaces as %20. Literal '+'
// is already escaped to %2B, so only spaces are affected.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
