package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

type stubAdapter struct {
	name string
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Lookup(context.Context, Query) ([]model.EnrichmentResult, error) {
	return nil, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubAdapter{name: "socrata"})
	r.Register(&stubAdapter{name: "chamber"})

	a, err := r.Get("socrata")
	require.NoError(t, err)
	assert.Equal(t, "socrata", a.Name())

	assert.Equal(t, []string{"chamber", "socrata"}, r.Names())
}

func TestRegistry_UnknownAdapter(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter")
}

func TestRegistry_ReplaceOnReregister(t *testing.T) {
	r := NewRegistry()
	first := &stubAdapter{name: "socrata"}
	second := &stubAdapter{name: "socrata"}
	r.Register(first)
	r.Register(second)

	a, err := r.Get("socrata")
	require.NoError(t, err)
	assert.Same(t, second, a.(*stubAdapter))
	assert.Len(t, r.Names(), 1)
}
