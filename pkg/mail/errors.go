// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"errors"
	"fmt"

	"github.com/designo-group/secret-santa/pkg/address"
)

// Error codes returned by the dispatcher.
const (
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeInvalidRecipient = "INVALID_RECIPIENT"
	CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	CodeTemplateInvalid  = "TEMPLATE_INVALID"
	CodeDeliveryFailed   = "DELIVERY_FAILED"
)

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrInvalidFormat    = &Error{Code: CodeInvalidFormat}
	ErrInvalidRecipient = &Error{Code: CodeInvalidRecipient}
	ErrTemplateNotFound = &Error{Code: CodeTemplateNotFound}
	ErrTemplateInvalid  = &Error{Code: CodeTemplateInvalid}
	ErrDeliveryFailed   = &Error{Code: CodeDeliveryFailed}
)

// Error is a mail failure with a stable code and the underlying cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on the code so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there
// is none.
func CodeOf(err error) string {
	var mailErr *Error
	if errors.As(err, &mailErr) {
		return mailErr.Code
	}
	return ""
}

// IsValidation reports whether err was caused by a bad recipient address.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidFormat, CodeInvalidRecipient:
		return true
	}
	return false
}

// fromAddressError maps a normalizer error to the matching dispatcher code.
func fromAddressError(err error) *Error {
	if errors.Is(err, address.ErrInvalidRecipient) {
		return newError(CodeInvalidRecipient, "invalid recipient", err)
	}
	return newError(CodeInvalidFormat, "invalid recipient address", err)
}
