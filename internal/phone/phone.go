// Package phone normalizes phone numbers to E.164 and derives the lookup hash
// used to match contacts without comparing raw numbers.
package phone

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rotisserie/eris"
)

var ErrNoDigits = eris.New("phone: no digits")

// Normalize returns the E.164 form of raw, parsed in defaultRegion when raw
// carries no country code. Numbers the metadata rejects but that still look
// like dialable digits (e.g. fictional 555 numbers) are kept by a digit-only
// fallback so a lead is never lost to strict validation.
func Normalize(raw, defaultRegion string) (string, error) {
	digits := Digits(raw)
	if digits == "" {
		return "", ErrNoDigits
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err == nil {
		return phonenumbers.Format(num, phonenumbers.E164), nil
	}

	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + digits, nil
	}
	cc := phonenumbers.GetCountryCodeForRegion(defaultRegion)
	if cc == 1 && len(digits) == 11 && digits[0] == '1' {
		return "+" + digits, nil
	}
	if cc > 0 {
		return "+" + strconv.Itoa(cc) + digits, nil
	}
	return "+" + digits, nil
}

// Hash is the hex SHA-256 of an already normalized number.
func Hash(e164 string) string {
	sum := sha256.Sum256([]byte(e164))
	return hex.EncodeToString(sum[:])
}

// National formats an E.164 number for humans, falling back to the input.
func National(e164 string) string {
	num, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return e164
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL)
}

func Last4(s string) string {
	d := Digits(s)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
