package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// MACRegex accepts six colon- or hyphen-separated octets
	MACRegex = regexp.MustCompile(`^([0-9A-Fa-f]{2}([:-])){5}[0-9A-Fa-f]{2}$`)

	// RFIDRegex accepts the reader-compatible identifier alphabet
	RFIDRegex = regexp.MustCompile(`^[0-9A-Fa-f]{8,24}$`)
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", e.Field())
			case "oneof":
				errors[field] = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
			case "gt":
				errors[field] = fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
			case "email":
				errors[field] = "Invalid email format"
			default:
				errors[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return errors
}

// ValidateIPv4 checks a dotted-quad IPv4 address: exactly four decimal
// octets in 0-255, no leading/trailing junk. "999.1.1.1" is rejected.
func ValidateIPv4(ip string) bool {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return false
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
		// No leading zeros ("01.2.3.4" is ambiguous octal notation).
		if len(part) > 1 && part[0] == '0' {
			return false
		}
	}
	return true
}

// ValidateMAC checks a 6-octet hardware address. Both separator styles are
// accepted, but not mixed within one address.
func ValidateMAC(mac string) bool {
	if !MACRegex.MatchString(mac) {
		return false
	}
	// The regex admits mixed separators; require a single style.
	return !(strings.Contains(mac, ":") && strings.Contains(mac, "-"))
}

// ValidateRFID checks a supplied RFID number's format
func ValidateRFID(rfid string) bool {
	return RFIDRegex.MatchString(rfid)
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}
