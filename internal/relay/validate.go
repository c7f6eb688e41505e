package relay

import (
	"fmt"
	"regexp"

	"github.com/namahsea/sellmo-landing-page/internal/models"
)

// emailPattern is local@domain.tld where no part holds whitespace or '@'.
// Whitespace covers the Unicode separators and BOM as well as ASCII space.
var emailPattern = regexp.MustCompile(`^[^\t\n\v\f\r\pZ\x{FEFF}@]+@[^\t\n\v\f\r\pZ\x{FEFF}@]+\.[^\t\n\v\f\r\pZ\x{FEFF}@]+$`)

// ValidEmail reports whether s has the shape local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate checks a submission regardless of how it arrived.
func Validate(sub models.SignupSubmission) error {
	if sub.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidEmail)
	}
	if !ValidEmail(sub.Email) {
		return fmt.Errorf("%w: %q is not an email address", ErrInvalidEmail, sub.Email)
	}
	return nil
}
