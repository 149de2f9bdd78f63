package edgecontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/edgecontext-in-go/internal/fixtures"
)

func TestSetAndGet(t *testing.T) {
	ec := newFactory(t).FromUpstream([]byte(fixtures.EnvelopeNoAuth))
	ctx := Set(context.Background(), ec)

	got, ok := Get(ctx)
	require.True(t, ok)
	assert.Same(t, ec, got)
	assert.Equal(t, []byte(fixtures.EnvelopeNoAuth), RawHeader(ctx))
}

func TestGet_Missing(t *testing.T) {
	ec, ok := Get(context.Background())
	assert.False(t, ok)
	assert.Nil(t, ec)
	assert.Nil(t, RawHeader(context.Background()))
}

func TestSet_Nil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, Set(ctx, nil))
}
