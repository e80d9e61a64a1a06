package clients

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderErrorKindsAreNonZero(t *testing.T) {
	for _, err := range []*ProviderError{
		newTransportError("serpapi", errors.New("dial")),
		newStatusError("serpapi", 500, ""),
		newDecodeError("serpapi", errors.New("eof")),
		newProviderError("serpapi", "quota"),
		newNotConfiguredError("gemini", "no key"),
	} {
		assert.NotZero(t, err.Type, err.Error())
	}
}

func TestIsProviderErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("search: %w", newStatusError("serpapi", 429, "rate limited"))
	assert.True(t, IsProviderError(wrapped))
	assert.Equal(t, "search: serpapi: rate limited (status 429)", wrapped.Error())
	assert.False(t, IsProviderError(errors.New("plain")))
}
