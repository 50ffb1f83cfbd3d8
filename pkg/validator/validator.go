package validator

import (
	"math"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const maxMessageLength = 4000

// ValidateMessageContent rejects empty or whitespace-only message bodies
// before any network call is made.
func ValidateMessageContent(content string) ValidationErrors {
	errs := make(ValidationErrors)

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		errs.Add("content", "Message content is required")
	} else if len(content) > maxMessageLength {
		errs.Add("content", "Message is too long")
	}

	return errs
}

// ValidateKudos accepts any finite, non-negative amount. Zero is a valid
// award, not a falsy rejection.
func ValidateKudos(amount float64) ValidationErrors {
	errs := make(ValidationErrors)

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		errs.Add("kudos", "Kudos amount must be a number")
	} else if amount < 0 {
		errs.Add("kudos", "Kudos amount cannot be negative")
	}

	return errs
}
