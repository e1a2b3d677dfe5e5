// Package slug derives unique URL slugs from display names.
package slug

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// maxAttempts bounds the suffix probe loop. The store is finite, but a bound
// keeps a misbehaving Checker from spinning forever.
const maxAttempts = 1000

// Sentinel errors of the slug package.
var (
	// ErrExhausted is returned when no free slug is found within maxAttempts.
	ErrExhausted = errors.New("slug: no free candidate found")

	// ErrTaken signals a unique violation on a slug column. Stores return it
	// so creation paths can re-resolve and retry: two concurrent creations
	// with the same name can both observe a free slug before either inserts.
	ErrTaken = errors.New("slug: already taken")
)

// insertRetries bounds retry loops on ErrTaken. A conflict needs a concurrent
// writer racing the same base slug, so a couple of retries is plenty.
const insertRetries = 3

// Checker reports whether a slug is already taken by a record other than
// excludeID. An empty excludeID means no record is excluded.
type Checker interface {
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, slug, excludeID string) (bool, error)

func (f CheckerFunc) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return f(ctx, slug, excludeID)
}

// Resolver produces unique slugs by probing a Checker with numeric suffixes.
type Resolver struct {
	check Checker
}

// NewResolver creates a Resolver backed by the given Checker.
func NewResolver(check Checker) *Resolver {
	return &Resolver{check: check}
}

// Resolve normalizes name into a base slug and returns the first candidate of
// base, base-1, base-2, ... not taken by a record other than excludeID.
// Candidates are assigned first-requested-first-served; resolving the same
// name twice without inserting returns the same slug both times.
//
// A name that normalizes to nothing (e.g. all punctuation) falls back to a
// generated identifier so the result is never empty.
func (r *Resolver) Resolve(ctx context.Context, name, excludeID string) (string, error) {
	base := Normalize(name)
	if base == "" {
		base = "entry-" + uuid.NewString()[:8]
	}

	candidate := base
	for suffix := 1; suffix <= maxAttempts; suffix++ {
		taken, err := r.check.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", errors.Wrap(err, "check slug")
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(suffix)
	}
	return "", ErrExhausted
}

// InsertWithRetry resolves a slug for name, hands it to assign, and runs
// insert. When insert reports ErrTaken (the store's unique index caught a
// concurrent writer), the slug is re-resolved and the insert retried a
// bounded number of times.
func (r *Resolver) InsertWithRetry(ctx context.Context, name, excludeID string, assign func(string), insert func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < insertRetries; attempt++ {
		s, rerr := r.Resolve(ctx, name, excludeID)
		if rerr != nil {
			return rerr
		}
		assign(s)
		if err = insert(ctx); !errors.Is(err, ErrTaken) {
			return err
		}
	}
	return err
}

// Normalize converts a display name to its base slug: diacritics stripped,
// lowercased, with every run of non-alphanumeric characters collapsed to a
// single hyphen and no leading or trailing hyphens.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevHyphen := true // suppress leading hyphen
	for _, r := range norm.NFD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining mark left over from decomposition, drop it.
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			prevHyphen = false
		// đ/Đ survive NFD decomposition; slugs for Vietnamese names depend on it.
		case r == 'đ' || r == 'Đ':
			b.WriteByte('d')
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
