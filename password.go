package taskverse

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	reUppercase = regexp.MustCompile(`[A-Z]`)
	reLowercase = regexp.MustCompile(`[a-z]`)
)

// ValidatePassword applies the local password policy: minimum length
// six, at least one uppercase and one lowercase letter. It runs before
// any provider call so a weak password never costs a network round
// trip.
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(6, 0).Error("must be at least 6 characters long"),
		validation.Match(reUppercase).Error("must include at least one uppercase letter"),
		validation.Match(reLowercase).Error("must include at least one lowercase letter"),
	)
	if err != nil {
		return ErrWeakPassword.Clone().WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}
	return nil
}

func validateEmail(email string) error {
	err := validation.Validate(email, validation.Required, is.Email)
	if err != nil {
		return ErrInvalidEmail.Clone().WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}
	return nil
}
