package properties

import (
	"testing"

	"github.com/airenas/medscribe/internal/pkg/test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	ctx := test.Ctx(t)

	_, err := s.Get(ctx, "a")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.Nil(t, s.Set(ctx, "b", "2"))
	require.Nil(t, s.Set(ctx, "a", "1"))
	v, err := s.Get(ctx, "a")
	require.Nil(t, err)
	assert.Equal(t, "1", v)

	keys, err := s.List(ctx)
	require.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.Nil(t, s.Delete(ctx, "a"))
	require.Nil(t, s.Delete(ctx, "a"))
	keys, _ = s.List(ctx)
	assert.Equal(t, []string{"b"}, keys)
}
