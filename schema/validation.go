// Package schema holds the validated request bodies and the response shapes
// served by the HTTP handlers.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	passwordMinLen   = 8
	passwordMaxLen   = 20
	passwordSpecials = "@$!%*#?&"
)

var registerOnce sync.Once

// RegisterValidators installs the custom "password" and "gender" rules on
// gin's validator and makes error fields report their JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, "password", validatePassword)
		mustRegister(v, "gender", validateGender)
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("schema: register %q validator: %v", tag, err))
	}
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

func validatePassword(fl validator.FieldLevel) bool {
	return PasswordAcceptable(fl.Field().String())
}

func validateGender(fl validator.FieldLevel) bool {
	_, ok := NormalizeGender(fl.Field().String())
	return ok
}

// PasswordAcceptable reports whether pw is 8 to 20 characters drawn from
// letters, digits and @$!%*#?&, with at least one of each class.
func PasswordAcceptable(pw string) bool {
	if len(pw) < passwordMinLen || len(pw) > passwordMaxLen {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// NormalizeGender maps any casing of male, female or other to its canonical
// form.
func NormalizeGender(g string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "male":
		return "Male", true
	case "female":
		return "Female", true
	case "other":
		return "Other", true
	}
	return "", false
}

// ValidationMessage turns a binding error into a message fit for the API
// envelope's msg field.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "eqfield":
		return "The two passwords did not match."
	case "password":
		return "Password must be 8-20 characters and include upper and lower case letters, numbers, and a special character (@$!%*#?&)."
	case "gender":
		return fmt.Sprintf("%s must be one of male, female, other", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted YYYY-MM-DD", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed on the %s rule", field, fe.Tag())
	}
}
