package workflow

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	t "storyboarder/internal/types"
)

var (
	validateOnce sync.Once
	briefCheck   *validator.Validate
)

func briefValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("aspect", func(fl validator.FieldLevel) bool {
			return t.AspectRatio(fl.Field().String()).Valid()
		})
		briefCheck = v
	})
	return briefCheck
}

// ValidateBrief checks required fields, the aspect ratio and numeric
// bounds. Missing fields are reported before any other problem.
func ValidateBrief(b t.Brief) error {
	err := briefValidator().Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Reason: "invalid brief", Err: err}
	}
	var missing, bad []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		bad = append(bad, fe.Field())
	}
	if len(missing) > 0 {
		return &ValidationError{Reason: "missing required fields", Fields: missing, Err: err}
	}
	return &ValidationError{Reason: "fields out of range", Fields: bad, Err: err}
}
