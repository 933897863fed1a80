// Package phone normalises free-form phone numbers.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// Normalizer formats numbers as E.164, interpreting numbers without a country
// prefix in its default region.
type Normalizer struct {
	region string
}

func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultRegion
	}
	return &Normalizer{region: region}
}

// Normalize returns the E.164 form of raw, or "" when raw is not a valid number.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(raw, n.region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
