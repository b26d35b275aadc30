package report

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("report: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Config holds what a [Client] needs to reach a JasperServer.
// BaseURL is the REST reports root, typically
// http://host:8080/jasperserver/rest_v2/reports.
type Config struct {
	BaseURL  string `mapstructure:"url" validate:"required,http_url"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

// check validates c and returns the parsed base URL.
func (c Config) check() (*url.URL, error) {
	if err := validate.Struct(c); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return nil, &ConfigError{Fields: []FieldError{{Field: "config", Err: err.Error()}}}
		}

		fields := make([]FieldError, 0, len(verrors))
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			})
		}

		return nil, &ConfigError{Fields: fields}
	}

	base, err := url.Parse(c.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, &ConfigError{Fields: []FieldError{{Field: "url", Err: "url must be an absolute URL"}}}
	}

	return base, nil
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	case "http_url":
		return fmt.Sprintf("%s must be an absolute http or https URL", verror.Field())
	default:
		return verror.Translate(translator)
	}
}

// basicAuth renders the Authorization header value for the credentials.
func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
