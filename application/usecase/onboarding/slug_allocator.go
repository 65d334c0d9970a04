package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fixora/marketplace/application/port/outbound"
)

const (
	listingSlugPrefix      = "service"
	slugIDChars            = 6
	defaultMaxSlugAttempts = 1000
)

var ErrSlugSpaceExhausted = errors.New("no free slug found")

// SlugAllocator finds an unused listing slug by probing base, base-2,
// base-3 and so on. Probing is only an optimization: the store's unique
// index on the slug is what actually prevents duplicates, so Allocate must
// run in the transaction that inserts the listing.
type SlugAllocator struct {
	maxAttempts int
}

func NewSlugAllocator(maxAttempts int) *SlugAllocator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxSlugAttempts
	}
	return &SlugAllocator{maxAttempts: maxAttempts}
}

func (a *SlugAllocator) Allocate(ctx context.Context, checker outbound.SlugChecker, base string) (string, error) {
	base = NormalizeSlug(base)
	if base == "" {
		base = listingSlugPrefix
	}

	for n := 1; n <= a.maxAttempts; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		exists, err := checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for base %q after %d attempts", ErrSlugSpaceExhausted, base, a.maxAttempts)
}

// NormalizeSlug lower-cases s, turns every run of characters outside
// [a-z0-9] into a single dash and trims dashes at both ends.
func NormalizeSlug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SlugBase derives the deterministic base for a request's first listing:
// "service-" followed by the first alphanumeric characters of its id.
func SlugBase(requestID string) string {
	id := strings.ReplaceAll(NormalizeSlug(requestID), "-", "")
	if len(id) > slugIDChars {
		id = id[:slugIDChars]
	}
	if id == "" {
		return listingSlugPrefix
	}
	return listingSlugPrefix + "-" + id
}
