package cmd

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// settings is the validated view of the viper keys the commands use.
type settings struct {
	DataSource  string        `key:"data.source" validate:"required"`
	Concurrency int           `key:"sync.concurrency" validate:"min=1,max=32"`
	Rate        float64       `key:"sync.rate" validate:"min=0"`
	Retries     int           `key:"http.retries" validate:"min=0,max=10"`
	Timeout     time.Duration `key:"http.timeout" validate:"gt=0"`
	Proxy       string        `key:"http.proxy" validate:"omitempty,url"`
}

var settingsMessages = map[string]string{
	"required": "must be set",
	"min":      "is too small",
	"max":      "is too large",
	"gt":       "must be positive",
	"url":      "is not a valid URL",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if key := fld.Tag.Get("key"); key != "" {
			return key
		}
		return fld.Name
	})
	return v
}

func loadSettings() (settings, error) {
	s := settings{
		DataSource:  strings.TrimSpace(viper.GetString("data.source")),
		Concurrency: viper.GetInt("sync.concurrency"),
		Rate:        viper.GetFloat64("sync.rate"),
		Retries:     viper.GetInt("http.retries"),
		Timeout:     viper.GetDuration("http.timeout"),
		Proxy:       viper.GetString("http.proxy"),
	}
	if err := validate.Struct(s); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return s, err
		}
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msg := settingsMessages[e.Tag()]
			if msg == "" {
				msg = e.Error()
			}
			msgs = append(msgs, fmt.Sprintf("%s %s (got %v)", e.Field(), msg, e.Value()))
		}
		return s, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return s, nil
}
