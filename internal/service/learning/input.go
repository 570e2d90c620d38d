package learning

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AnswerInput holds the outcome of the current card.
type AnswerInput struct {
	Correct bool `json:"correct"`
}

// EditCardInput holds the parameters for editing a card's text.
type EditCardInput struct {
	CardID    uuid.UUID `json:"card_id"    validate:"required"`
	FrontText string    `json:"front_text"`
	BackText  string    `json:"back_text"`
}

// Validate checks all fields and collects all errors.
func (i *EditCardInput) Validate() error {
	return validateStruct(i)
}

// DeleteCardInput holds the parameters for deleting a card.
type DeleteCardInput struct {
	CardID uuid.UUID `json:"card_id" validate:"required"`
}

// Validate checks all fields and collects all errors.
func (i *DeleteCardInput) Validate() error {
	return validateStruct(i)
}

// AddCardInput holds the parameters for adding a card to the deck.
type AddCardInput struct {
	FrontText string `json:"front_text"`
	BackText  string `json:"back_text"`
}

// Validate is a no-op: card content is not validated.
func (i *AddCardInput) Validate() error {
	return nil
}

// validateStruct runs the struct tags and converts failures into field errors.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, domain.FieldError{Field: fieldName(fe), Message: tagMessage(fe.Tag())})
	}
	return domain.NewValidationErrors(errs)
}

func fieldName(fe validator.FieldError) string {
	var b strings.Builder
	for i, r := range fe.Field() {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := fe.Field()[i-1]
			if prev < 'A' || prev > 'Z' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "required"
	default:
		return "invalid value (" + tag + ")"
	}
}
