// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var (
	// ErrInvalidFormat is returned when an address does not split into exactly
	// one local part and one domain part.
	ErrInvalidFormat = errors.New("invalid email format")
	// ErrInvalidRecipient is returned when the local part contains non-ASCII
	// characters. Only the domain may be internationalized.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// Error describes why an address was rejected. Kind is one of
// ErrInvalidFormat or ErrInvalidRecipient.
type Error struct {
	Kind    error
	Address string
	Detail  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %q %s", e.Kind, e.Address, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ToASCII converts an email address with a Unicode domain to its punycode
// form, e.g. test@designø.com becomes test@xn--design-gya.com.
//
// The local part is returned unchanged and must be ASCII. Addresses that are
// already ASCII come back byte-identical.
func ToASCII(email string) (string, error) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "", &Error{Kind: ErrInvalidFormat, Address: email, Detail: "must contain exactly one '@'"}
	}
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" {
		return "", &Error{Kind: ErrInvalidFormat, Address: email, Detail: "local part and domain must not be empty"}
	}
	if !IsASCII(local) {
		return "", &Error{Kind: ErrInvalidRecipient, Address: email, Detail: "only the domain may contain non-ASCII characters"}
	}

	asciiDomain, err := idna.Punycode.ToASCII(domain)
	if err != nil {
		return "", &Error{Kind: ErrInvalidFormat, Address: email, Detail: fmt.Sprintf("domain cannot be encoded: %v", err)}
	}
	return local + "@" + asciiDomain, nil
}

// ToASCIIAll converts every address in order. It stops at the first invalid
// address.
func ToASCIIAll(emails []string) ([]string, error) {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		a, err := ToASCII(e)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// IsASCII reports whether s consists of 7-bit characters only.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
