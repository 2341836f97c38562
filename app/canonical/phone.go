package canonical

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "DE"

var ErrUnparsablePhone = errors.New("unparsable phone number")

// PhoneParser turns a raw phone number into its international representation.
type PhoneParser interface {
	Parse(raw, defaultRegion string) (string, error)
}

// LibPhoneParser is the PhoneParser backed by libphonenumber metadata.
type LibPhoneParser struct{}

func (LibPhoneParser) Parse(raw, defaultRegion string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", errors.Join(ErrUnparsablePhone, err)
	}

	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), nil
}

type PhoneNormalizer struct {
	parser PhoneParser
	region string
}

func NewPhoneNormalizer(parser PhoneParser, defaultRegion string) *PhoneNormalizer {
	if parser == nil {
		parser = LibPhoneParser{}
	}
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = DefaultRegion
	}

	return &PhoneNormalizer{parser: parser, region: region}
}

// Normalize returns the canonical form of raw. A blank or malformed number
// is reported as absent rather than as an error: it simply claims nothing.
func (n *PhoneNormalizer) Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	canonicalValue, err := n.parser.Parse(raw, n.region)
	if err != nil || canonicalValue == "" {
		return "", false
	}

	return canonicalValue, true
}

func (n *PhoneNormalizer) Region() string {
	return n.region
}
