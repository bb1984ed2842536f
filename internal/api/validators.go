package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	requiredTag  = "required"
	requiredText = "this field is required"
)

// newValidator returns a validator that reports errors by JSON field name, in English.
func newValidator() (*validator.Validate, ut.Translator) {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterTranslation(
		requiredTag, translator,
		func(t ut.Translator) error { return t.Add(requiredTag, requiredText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(requiredTag, fe.Field())
			return s
		},
	)
	return validate, translator
}

// requestValidator adapts go-playground/validator to echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
