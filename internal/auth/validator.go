package auth

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"messenger-service/internal/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nospace", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
	})
	return v
}

type Credentials struct {
	Username string `validate:"required,min=2,max=32,nospace"`
	Password string `validate:"required,min=6,max=72"`
}

// ValidateCredentials checks the shape of signup input. bcrypt caps passwords at 72 bytes.
func ValidateCredentials(c Credentials) error {
	if err := validate.Struct(c); err != nil {
		return apperrors.Validation("%s", err.Error())
	}
	return nil
}
