package sim

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by config sections, initial states and snapshots.
// Field names in errors follow the json (or yaml) tag so they match the
// serialized schema.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "yaml"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	err := validate.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
		_, err := ParseAllocationStrategy(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(fmt.Sprintf("registering strategy validation: %v", err))
	}
}

// Validator exposes the shared instance so sibling packages validate their
// config sections with the same tag-name rules.
func Validator() *validator.Validate {
	return validate
}

// asMalformed converts a validation failure into a MalformedStateError
// naming the first offending field.
func asMalformed(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return malformed(fe.Namespace(), "failed %q validation", fe.Tag())
	}
	return malformed("", "%v", err)
}
