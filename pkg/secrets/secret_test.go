package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionedSecret_AllVersions(t *testing.T) {
	tests := []struct {
		name     string
		secret   VersionedSecret
		expected []string
	}{
		{
			name:     "current only",
			secret:   VersionedSecret{Current: "a"},
			expected: []string{"a"},
		},
		{
			name:     "all versions in order",
			secret:   VersionedSecret{Current: "a", Previous: "b", Next: "c"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "gaps are skipped",
			secret:   VersionedSecret{Current: "a", Next: "c"},
			expected: []string{"a", "c"},
		},
		{
			name:     "empty",
			secret:   VersionedSecret{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.secret.AllVersions())
		})
	}
}

func TestParseSlot(t *testing.T) {
	for _, s := range []string{"current", "previous", "next"} {
		slot, err := ParseSlot(s)
		require.NoError(t, err)
		assert.Equal(t, Slot(s), slot)
	}

	_, err := ParseSlot("latest")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, _, err := store.GetVersionedAndMtime("secret/a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Freeze the clock so that mtimes only advance through the tie breaker.
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return frozen }

	store.Set("secret/a", VersionedSecret{Current: "one"})
	secret, first, err := store.GetVersionedAndMtime("secret/a")
	require.NoError(t, err)
	assert.Equal(t, VersionedSecret{Current: "one"}, secret)

	require.NoError(t, store.Put("secret/a", SlotNext, "two"))
	secret, second, err := store.GetVersionedAndMtime("secret/a")
	require.NoError(t, err)
	assert.Equal(t, VersionedSecret{Current: "one", Next: "two"}, secret)
	assert.True(t, second.After(first))

	store.Delete("secret/a")
	_, third, err := store.GetVersionedAndMtime("secret/a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, third.After(second))
}
