// File: internal/validation/validator.go
package validation

import (
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the phone-number region used by the carrier checks.
const DefaultRegion = "KE"

var validate = validator.New()

// safaricomPrefixes is the closed allow-list of four-digit carrier prefixes.
// Numbers outside this set fail validation even if otherwise well-formed.
var safaricomPrefixes = map[string]struct{}{
	"0701": {}, "0702": {}, "0703": {}, "0704": {}, "0705": {}, "0706": {}, "0707": {}, "0708": {}, "0709": {},
	"0710": {}, "0711": {}, "0712": {}, "0713": {}, "0714": {}, "0715": {}, "0716": {}, "0717": {}, "0718": {}, "0719": {},
	"0720": {}, "0721": {}, "0722": {}, "0723": {}, "0724": {}, "0725": {}, "0726": {}, "0727": {}, "0728": {}, "0729": {},
	"0740": {}, "0741": {}, "0742": {}, "0743": {}, "0744": {}, "0745": {}, "0746": {}, "0747": {}, "0748": {}, "0749": {},
	"0757": {}, "0758": {}, "0768": {}, "0769": {}, "0790": {}, "0791": {}, "0792": {}, "0793": {}, "0794": {}, "0795": {},
	"0796": {}, "0797": {}, "0798": {}, "0799": {}, "0110": {}, "0111": {}, "0112": {}, "0113": {}, "0114": {}, "0115": {},
}

// lookupMX is swappable in tests to avoid real DNS traffic.
var lookupMX = net.LookupMX

// IsValidEmail reports whether the address is syntactically valid and, when
// checkDeliverability is set, whether its domain publishes an MX record.
func IsValidEmail(email string, checkDeliverability bool) bool {
	if err := validate.Var(email, "required,email"); err != nil {
		return false
	}
	if !checkDeliverability {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	records, err := lookupMX(email[at+1:])
	return err == nil && len(records) > 0
}

// NormalizePhone strips non-digit characters and rewrites an international
// prefix (+254, or 254 with 12 digits) to the local leading-zero form.
// Total function: never fails, empty input yields empty output.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "254") && len(digits) == 12 {
		return "0" + digits[3:]
	}
	return digits
}

// IsValidCarrierPhone normalizes the number, parses it as a regional phone
// number, and requires its first four digits to be on the carrier allow-list.
func IsValidCarrierPhone(phone string) bool {
	return IsValidCarrierPhoneInRegion(phone, DefaultRegion)
}

// IsValidCarrierPhoneInRegion is IsValidCarrierPhone with an explicit region.
func IsValidCarrierPhoneInRegion(phone, region string) bool {
	normalized := NormalizePhone(phone)
	if normalized == "" || len(normalized) < 10 {
		return false
	}
	parsed, err := phonenumbers.Parse(normalized, region)
	if err != nil {
		return false
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return false
	}
	_, ok := safaricomPrefixes[normalized[:4]]
	return ok
}

// ValidatePasswordStrength enforces the registration password contract:
// at least 8 characters, at least one letter, at least one digit, and only
// letters and digits throughout.
func ValidatePasswordStrength(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range password {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}
