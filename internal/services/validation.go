package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"psychicline-backend/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// MaxCreditTopUp caps a single admin top-up.
const MaxCreditTopUp = models.Credits(10_000 * models.CentsPerCredit)

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireText(fields map[string]string, key, value, message string) {
	if strings.TrimSpace(value) == "" {
		fields[key] = message
	}
}
