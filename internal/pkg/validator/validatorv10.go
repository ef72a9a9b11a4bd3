package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/productivefire/server/internal/pkg/strcase"
)

var reOTP = regexp.MustCompile(`^[0-9]{6}$`)

// Password length bounds. The upper bound is bcrypt's input limit.
const (
	PasswordMinLen = 6
	PasswordMaxLen = 72
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// Validator validates a struct using its tags.
type Validator interface {
	Validate(data any) error
}

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are the JSON names of the fields (lowerCamel when no tag is present).
type V10ValidationError map[string]string

// Error implements the error interface.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}

	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := v10CustomValidation(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	errV10 := make(V10ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		if _, exists := errV10[fe.Field()]; exists {
			continue
		}
		errV10[fe.Field()] = fe.Translate(v.translator)
	}

	return errV10
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return strcase.ToLowerCamel(fld.Name)
	}

	return name
}

type customRule struct {
	tag  string
	text string
	fn   validator.Func
}

func v10CustomValidation(validate *validator.Validate, enTrans ut.Translator) error {
	rules := []customRule{
		{
			tag:  "password",
			text: fmt.Sprintf("{0} must be %d-%d characters", PasswordMinLen, PasswordMaxLen),
			fn: func(fl validator.FieldLevel) bool {
				p, ok := fl.Field().Interface().(string)
				if !ok {
					return false
				}
				n := utf8.RuneCountInString(p)

				return n >= PasswordMinLen && len(p) <= PasswordMaxLen
			},
		},
		{
			tag:  "otp",
			text: "{0} must be exactly 6 digits",
			fn: func(fl validator.FieldLevel) bool {
				s, ok := fl.Field().Interface().(string)
				return ok && reOTP.MatchString(s)
			},
		},
	}

	for _, r := range rules {
		if err := validate.RegisterValidation(r.tag, r.fn); err != nil {
			return err
		}
		if err := registerText(validate, enTrans, r.tag, r.text); err != nil {
			return err
		}
	}

	// Built-in rule without a bundled English message.
	return registerText(validate, enTrans, "alphaspace", "{0} can contain only letters and spaces")
}

func registerText(validate *validator.Validate, enTrans ut.Translator, tag, text string) error {
	return validate.RegisterTranslation(tag, enTrans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, err := ut.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("warning: error translating", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}

			return t
		},
	)
}
