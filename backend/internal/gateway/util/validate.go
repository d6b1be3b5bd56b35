package util

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"unipulse/backend/internal/shared"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	hhmmTag    = "hhmm"
	weekdayTag = "weekday"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(hhmmTag, func(fl validator.FieldLevel) bool {
		return shared.IsHHMM(fl.Field().String())
	})
	_ = Validate.RegisterValidation(weekdayTag, func(fl validator.FieldLevel) bool {
		return shared.WeekdayIndex(fl.Field().String()) >= 0
	})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{hhmmTag, weekdayTag} {
		_ = Validate.RegisterTranslation(tag, Translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case hhmmTag:
		return fe.Field() + " must be a 24-hour HH:MM time"
	case weekdayTag:
		return fe.Field() + " must be one of " + strings.Join(shared.Weekdays, ", ")
	default:
		return fe.Error()
	}
}

// ValidateStruct runs tag validation and folds failures into one Validation error
func ValidateStruct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return shared.Validation(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(Translator))
	}
	sort.Strings(msgs)
	return shared.Validation(strings.Join(msgs, "; "))
}

// DecodeJSON reads a JSON body into dst and validates it
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			return shared.Validation("request body is required")
		}
		return shared.Validation(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return ValidateStruct(dst)
}
