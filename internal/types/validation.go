package types

import (
	"strings"

	"github.com/gameinfo/gamesync/internal/apperr"
)

// ValidateIDPresent rejects empty or whitespace-only identifiers before
// any I/O happens.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Errorf(apperr.KindInvalid, "validate", "%s must not be empty", field)
	}
	return nil
}

// ValidateText rejects empty review text.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Errorf(apperr.KindInvalid, "validate", "text must not be empty")
	}
	return nil
}
