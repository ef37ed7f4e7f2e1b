package handler

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "!#()-*_&@$%?"

var (
	firstNameRe = regexp.MustCompile(`^[\w-]+$`)
	lastNameRe  = regexp.MustCompile(`^[\w-]+[ \w]*\.?$`)
	emailRe     = regexp.MustCompile(`^[\w+.]+@[\w+.]+\.\w+$`)
)

var fieldLabels = map[string]string{
	"fname":       "First name",
	"lname":       "Last name",
	"email":       "Email",
	"pw":          "Password",
	"name":        "Name",
	"ingredients": "Ingredients",
	"drink_id":    "Drink id",
	"rating":      "Rating",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "fname", matches(firstNameRe))
	mustRegister(v, "lname", matches(lastNameRe))
	mustRegister(v, "emailaddr", matches(emailRe))
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return passwordProblem(fl.Field().String()) == ""
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// validationErrors returns field -> message for every bad field of req, nil
// when req is acceptable.
func validationErrors(req interface{}) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "fname":
		return "First name can only contain letters and dashes"
	case "lname":
		return "Last name can only contain letters, dashes, numbers, and periods"
	case "emailaddr":
		return "Invalid email format"
	case "password":
		s, _ := fe.Value().(string)
		return passwordProblem(s)
	case "min", "max":
		if fe.Field() == "rating" {
			return label + " must be between 1 and 5"
		}
		return label + " cannot be empty"
	case "len", "hexadecimal":
		return label + " is not a valid identifier"
	default:
		return fe.Error()
	}
}

// passwordProblem returns "" for an acceptable password: 6 to 18 characters
// drawn from letters, digits and passwordSpecials, with at least one of each
// of digit, lowercase, uppercase and special.
func passwordProblem(pw string) string {
	if n := len(pw); n < 6 || n > 18 {
		return "Password must be between 6 and 18 characters"
	}
	var digit, lower, upper, special bool
	for _, c := range pw {
		switch {
		case c >= '0' && c <= '9':
			digit = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, c):
			special = true
		default:
			return "Password may only contain letters, numbers, and the characters " + passwordSpecials
		}
	}
	if !(digit && lower && upper && special) {
		return "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character (one of " + passwordSpecials + ")"
	}
	return ""
}
