package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

const notBlankTag = "notblank"

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(s) != ""
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " cannot be blank"
		},
	)
}

// bindJSON decodes the body into dst and validates it. An empty body decodes as the zero value.
// On failure it has already written the 400 response and returns done=true. Field rule
// violations share the INVALID_ARGUMENT code with ledger argument errors.
func bindJSON(c *fiber.Ctx, dst any) (done bool, err error) {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return true, writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return true, writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Translate(translator)
		}
		return true, writeErrorFields(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", "request validation failed", fields)
	}
	return false, nil
}
