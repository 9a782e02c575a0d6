package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// ReportReasons are the accepted values of ReportUserRequest.Reason.
var ReportReasons = []string{"spam", "fake", "offensive", "underage", "other"}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("person_name", personName)
	})
	return validate
}

// personName accepts 2..50 characters made of letters, spaces, hyphens and apostrophes.
func personName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 50 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

// Validate checks struct tags on a request and returns an InvalidArgument
// error naming the first offending fields.
func Validate(req any) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return svcErr.Invalid("%v", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describe(fe))
	}
	return svcErr.Invalid("%s", strings.Join(parts, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "person_name":
		return field + " must be 2-50 letters"
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
