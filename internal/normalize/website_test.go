package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsite_AddsScheme(t *testing.T) {
	got, err := Website("www.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com", got)
}

func TestWebsite_LowercasesHostPreservesPathCase(t *testing.T) {
	got, err := Website("www.Example.com/Path/")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com/Path", got)
}

func TestWebsite_KeepsExistingScheme(t *testing.T) {
	got, err := Website("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got)
}

func TestWebsite_NoOpOnNormalized(t *testing.T) {
	once, err := Website("HTTPS://Example.com/shop/")
	require.NoError(t, err)

	twice, err := Website(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestWebsite_EmptyIsAllowed(t *testing.T) {
	got, err := Website("  ")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
