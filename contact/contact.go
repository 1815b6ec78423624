/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package contact builds WhatsApp deep links for matched members.
package contact

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const (
	DefaultCountryCode = "91"

	whatsAppBase = "https://api.whatsapp.com/send"

	// national numbers are this many digits long
	nationalDigits = 10
)

// NormalizePhone strips everything but digits and prefixes the country code
// to national numbers. Ten digits get the code prepended; longer numbers
// with a trunk zero lose the zero and get the code. Anything else is
// returned as digits only.
func NormalizePhone(raw, countryCode string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == nationalDigits:
		return countryCode + digits
	case len(digits) > nationalDigits && strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:]
	}

	return digits
}

// WhatsAppURL returns a link that opens a chat with phone, prefilled with
// message. It reports false when phone holds no digits.
func WhatsAppURL(phone, message, countryCode string) (string, bool) {
	number := NormalizePhone(phone, countryCode)
	if number == "" {
		return "", false
	}

	return whatsAppBase + "?phone=" + number + "&text=" + escape(message), true
}

// Greeting is the message a member sends to their match.
func Greeting(title, selfName, selfCompany, matchName string) string {
	from := ""
	if strings.TrimFunc(selfCompany, unicode.IsSpace) != "" {
		from = " from " + selfCompany
	}

	return fmt.Sprintf("Hi %s, I'm %s%s. I matched with you on the %s wheel! Let's schedule a 1-to-1 meeting.",
		matchName, selfName, from, title)
}

// escape percent-encodes like encodeURIComponent, spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
