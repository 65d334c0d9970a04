package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slugSet map[string]bool

func (s slugSet) SlugExists(_ context.Context, slug string) (bool, error) {
	return s[slug], nil
}

type failingChecker struct{}

func (failingChecker) SlugExists(context.Context, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestSlugAllocator_Allocate(t *testing.T) {
	ctx := context.Background()
	alloc := NewSlugAllocator(0)

	t.Run("free base is used as is", func(t *testing.T) {
		slug, err := alloc.Allocate(ctx, slugSet{}, "service-abc123")
		require.NoError(t, err)
		assert.Equal(t, "service-abc123", slug)
	})

	t.Run("taken base gets numeric suffix starting at 2", func(t *testing.T) {
		slug, err := alloc.Allocate(ctx, slugSet{"service-abc123": true}, "service-abc123")
		require.NoError(t, err)
		assert.Equal(t, "service-abc123-2", slug)
	})

	t.Run("suffixes are probed in order", func(t *testing.T) {
		taken := slugSet{"service-abc123": true, "service-abc123-2": true}
		slug, err := alloc.Allocate(ctx, taken, "service-abc123")
		require.NoError(t, err)
		assert.Equal(t, "service-abc123-3", slug)
	})

	t.Run("base is normalized", func(t *testing.T) {
		slug, err := alloc.Allocate(ctx, slugSet{}, "  Service ABC!! ")
		require.NoError(t, err)
		assert.Equal(t, "service-abc", slug)
	})

	t.Run("empty base falls back to prefix", func(t *testing.T) {
		slug, err := alloc.Allocate(ctx, slugSet{}, "!!!")
		require.NoError(t, err)
		assert.Equal(t, "service", slug)
	})

	t.Run("checker error is returned", func(t *testing.T) {
		_, err := alloc.Allocate(ctx, failingChecker{}, "service-abc123")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestSlugAllocator_Exhausted(t *testing.T) {
	alloc := NewSlugAllocator(3)
	taken := slugSet{"service-x": true, "service-x-2": true, "service-x-3": true}

	_, err := alloc.Allocate(context.Background(), taken, "service-x")
	assert.ErrorIs(t, err, ErrSlugSpaceExhausted)
}

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"service-abc123", "service-abc123"},
		{"Hello World", "hello-world"},
		{"--a__b--", "a-b"},
		{"Café Déco", "caf-d-co"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSlug(tt.in), "input %q", tt.in)
	}
}

func TestSlugBase(t *testing.T) {
	assert.Equal(t, "service-abc123", SlugBase("abc123de-f456"))
	assert.Equal(t, "service-a1b2c3", SlugBase("A1-B2-C3-D4"))
	assert.Equal(t, "service-ab", SlugBase("ab"))
	assert.Equal(t, "service", SlugBase(""))
}
