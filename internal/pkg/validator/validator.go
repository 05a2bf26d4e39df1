package validator

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:00)?$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return datePattern.MatchString(fl.Field().String())
	})
}

// Validate struct fields. Returns field name -> failed tag, or nil.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
