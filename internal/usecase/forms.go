package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"vocabtalk/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// TranslateForm is the translation view input.
type TranslateForm struct {
	Word string `json:"word" validate:"required,max=200"`
}

// SaveForm is a plain translation about to be stored.
type SaveForm struct {
	Title      string   `json:"title" validate:"required"`
	SourceTerm string   `json:"sourceTerm" validate:"required"`
	Tags       []string `json:"tags" validate:"min=1,dive,required"`
}

// MessageForm is one conversation message.
type MessageForm struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// validateForm runs the struct tags of form and converts field failures into
// a *domain.ValidationError.
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(fieldErrs))}
	for _, fieldErr := range fieldErrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Field:   fieldErr.Field(),
			Message: fieldMessage(fieldErr),
		})
	}
	return out
}

func fieldMessage(fieldErr validator.FieldError) string {
	field := fieldErr.Field()

	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fieldErr.Kind() == reflect.Slice {
			return fmt.Sprintf("select at least %s %s", fieldErr.Param(), field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
