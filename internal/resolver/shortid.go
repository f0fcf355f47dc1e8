package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/easel/pkg/board"
	"github.com/oklog/ulid/v2"
)

// MinShortIDLength is the shortest accepted item id prefix. The first ten
// ULID characters are the creation time, so six still tells apart items
// created more than about nine minutes apart.
const MinShortIDLength = 6

// ResolveItemID resolves ref, a full item id or a prefix of one, against list.
// Prefixes are matched case-insensitively since ULIDs are Crockford base32.
func ResolveItemID(list []board.Item, ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if _, err := ulid.ParseStrict(ref); err == nil {
		want := strings.ToUpper(ref)
		for _, item := range list {
			if strings.ToUpper(item.ID) == want {
				return item.ID, nil
			}
		}
		return "", &NotFoundError{ShortID: ref}
	}

	if len(ref) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(ref))
	}

	prefix := strings.ToUpper(ref)
	var matches []string
	for _, item := range list {
		if strings.HasPrefix(strings.ToUpper(item.ID), prefix) {
			matches = append(matches, item.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: ref}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: ref, Matches: matches}
	}
}

// ResolveAll resolves every ref, failing on the first that does not resolve.
// Duplicates are dropped.
func ResolveAll(list []board.Item, refs []string) ([]string, error) {
	seen := make(map[string]bool, len(refs))
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := ResolveItemID(list, ref)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// NotFoundError indicates no items matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no items found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple items matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d items", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the matching ids (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d items:\n", err.ShortID, len(err.Matches))

	shown := min(len(err.Matches), 10)
	for _, id := range err.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > shown {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-shown)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the item.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var target *AmbiguousError
	return errors.As(err, &target)
}
