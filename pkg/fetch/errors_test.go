package fetch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Errorf(KindRateLimit, "dicks", "status %d", 429)
	assert.Contains(t, err.Error(), "rate_limit error")
	assert.Contains(t, err.Error(), "dicks")
	assert.Contains(t, err.Error(), "429")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindFetch, "dicks", "https://x", nil))
}

func TestIsKind(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(KindParse, "nike", "", base)

	assert.True(t, IsKind(err, KindParse))
	assert.False(t, IsKind(err, KindFetch))
	assert.False(t, IsKind(base, KindParse))
	assert.True(t, errors.Is(err, base))

	// classification survives another layer of wrapping
	outer := fmt.Errorf("Collect Source - %w", err)
	assert.True(t, IsKind(outer, KindParse))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "config", KindConfig.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
