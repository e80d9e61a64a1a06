package clients

import (
	"errors"
	"fmt"
)

// ErrorType classifies provider failures. The zero value is not a valid kind.
type ErrorType int

const (
	ErrorTypeTransport ErrorType = iota + 1
	ErrorTypeStatus
	ErrorTypeDecode
	ErrorTypeProvider
	ErrorTypeNotConfigured
)

// ProviderError describes a failed call to an external provider.
type ProviderError struct {
	Provider   string
	Type       ErrorType
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err originated from a provider client.
func IsProviderError(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr)
}

func newTransportError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Type: ErrorTypeTransport, Message: "request failed", Err: err}
}

func newStatusError(provider string, status int, message string) *ProviderError {
	if message == "" {
		message = "unexpected status"
	}
	return &ProviderError{Provider: provider, Type: ErrorTypeStatus, StatusCode: status, Message: message}
}

func newDecodeError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Type: ErrorTypeDecode, Message: "invalid response body", Err: err}
}

func newProviderError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Type: ErrorTypeProvider, Message: message}
}

func newNotConfiguredError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Type: ErrorTypeNotConfigured, Message: message}
}
