package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names, which is what clients send.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct checks the validate tags of s and flattens every failure
// into one InvalidInput error.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalid("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s=%s'", field, e.Tag(), e.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s'", field, e.Tag()))
		}
	}
	return apperr.Invalid("%s", strings.Join(msgs, "; "))
}
