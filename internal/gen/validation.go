package gen

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	tableNamePattern = regexp.MustCompile(`^(\w+\.)?([\w]+\*?|\*)$`)
	embedPattern     = regexp.MustCompile(`^\*?([A-Za-z_]\w*\.)?[A-Za-z_]\w*$`)
	packagePattern   = regexp.MustCompile(`^[a-z_][a-z0-9_]*(/[a-z_][a-z0-9_]*)*$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "goident", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return token.IsIdentifier(s) && !token.IsKeyword(s)
	})
	mustRegister(v, "tablename", func(fl validator.FieldLevel) bool {
		return tableNamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "embed", func(fl validator.FieldLevel) bool {
		return embedPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "gopackage", func(fl validator.FieldLevel) bool {
		return packagePattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidationErrors maps an attribute name to its error messages
type ValidationErrors map[string][]string

func (e ValidationErrors) Add(attribute, message string) {
	e[attribute] = append(e[attribute], message)
}

func (e ValidationErrors) Has(attribute string) bool {
	return len(e[attribute]) > 0
}

// First returns the first error of attribute, or an empty string
func (e ValidationErrors) First(attribute string) string {
	if msgs := e[attribute]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// collectErrors runs the struct rules and converts failures into messages
func collectErrors(target any, errs ValidationErrors) {
	err := validate.Struct(target)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s cannot be blank.", label)
	case "goident":
		return fmt.Sprintf("%s must be a valid Go identifier.", label)
	case "gopackage":
		return fmt.Sprintf("%s must be a slash separated Go package path.", label)
	case "tablename":
		return fmt.Sprintf("%s should only contain word characters, an optional schema prefix and an optional ending asterisk.", label)
	case "embed":
		return fmt.Sprintf("%s must be a type name such as gorm.Model.", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, fe.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q.", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
