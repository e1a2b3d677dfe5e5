package slug

import (
	"context"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Green Tea", "green-tea"},
		{"diacritics", "Trà Ô Long Thượng Hạng", "tra-o-long-thuong-hang"},
		{"d with stroke", "Trà Đen Đặc Biệt", "tra-den-dac-biet"},
		{"punctuation runs", "Earl  Grey -- Supreme!!", "earl-grey-supreme"},
		{"leading trailing", "  ~Oolong~  ", "oolong"},
		{"digits kept", "Gaiwan 120ml", "gaiwan-120ml"},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

// memChecker simulates a store keyed by slug.
type memChecker struct {
	taken map[string]string // slug -> owner id
}

func (m *memChecker) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	owner, ok := m.taken[slug]
	if !ok {
		return false, nil
	}
	return excludeID == "" || owner != excludeID, nil
}

func TestResolve_FreeBase(t *testing.T) {
	r := NewResolver(&memChecker{taken: map[string]string{}})

	got, err := r.Resolve(context.Background(), "Jasmine Green Tea", "")
	require.NoError(t, err)
	assert.Equal(t, "jasmine-green-tea", got)
}

func TestResolve_SuffixesInOrder(t *testing.T) {
	c := &memChecker{taken: map[string]string{
		"jasmine": "a",
	}}
	r := NewResolver(c)

	got, err := r.Resolve(context.Background(), "Jasmine", "")
	require.NoError(t, err)
	assert.Equal(t, "jasmine-1", got)

	c.taken["jasmine-1"] = "b"
	got, err = r.Resolve(context.Background(), "Jasmine", "")
	require.NoError(t, err)
	assert.Equal(t, "jasmine-2", got)
}

func TestResolve_Idempotent(t *testing.T) {
	c := &memChecker{taken: map[string]string{"oolong": "a"}}
	r := NewResolver(c)

	// Without an insert in between, the same name resolves to the same slug.
	first, err := r.Resolve(context.Background(), "Oolong", "")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "Oolong", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_SelfExcluded(t *testing.T) {
	c := &memChecker{taken: map[string]string{"earl-grey": "me"}}
	r := NewResolver(c)

	// Renaming back to its own slug must not pick up a suffix.
	got, err := r.Resolve(context.Background(), "Earl Grey", "me")
	require.NoError(t, err)
	assert.Equal(t, "earl-grey", got)
}

func TestResolve_EmptyNameFallsBack(t *testing.T) {
	r := NewResolver(&memChecker{taken: map[string]string{}})

	got, err := r.Resolve(context.Background(), "***", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "entry-"), "got %q", got)
	assert.Len(t, got, len("entry-")+8)
}

func TestResolve_CheckerError(t *testing.T) {
	boom := errors.New("db down")
	r := NewResolver(CheckerFunc(func(context.Context, string, string) (bool, error) {
		return false, boom
	}))

	_, err := r.Resolve(context.Background(), "anything", "")
	require.ErrorIs(t, err, boom)
}

func TestInsertWithRetry_RetriesOnTaken(t *testing.T) {
	c := &memChecker{taken: map[string]string{}}
	r := NewResolver(c)

	var assigned []string
	attempts := 0
	err := r.InsertWithRetry(context.Background(), "Matcha", "",
		func(s string) { assigned = append(assigned, s) },
		func(context.Context) error {
			attempts++
			if attempts == 1 {
				// Concurrent writer inserted "matcha" between resolve and
				// insert; the unique index reports the conflict.
				c.taken["matcha"] = "rival"
				return ErrTaken
			}
			return nil
		},
	)
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	assert.Equal(t, []string{"matcha", "matcha-1"}, assigned)
}

func TestInsertWithRetry_GivesUp(t *testing.T) {
	r := NewResolver(&memChecker{taken: map[string]string{}})

	attempts := 0
	err := r.InsertWithRetry(context.Background(), "Sencha", "",
		func(string) {},
		func(context.Context) error {
			attempts++
			return ErrTaken
		},
	)
	require.ErrorIs(t, err, ErrTaken)
	assert.Equal(t, 3, attempts)
}
