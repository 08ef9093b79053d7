// Package slug turns allocator names into stable storage keys.
package slug

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxLen is the longest key, in bytes, that Key will return.
const MaxLen = 64

// ErrInvalidName is returned when a name has no usable characters.
var ErrInvalidName = errors.New("invalid allocator name")

// Slug folds s to lowercase ASCII-ish words joined by single dashes.
// Combining marks are dropped after NFD normalization, so "Café Drop"
// and "cafe drop" share a slug.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			dash = true
		}
	}
	return b.String()
}

// Key returns the storage key for an allocator name.
func Key(name string) (string, error) {
	k := Slug(name)
	if k == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if len(k) > MaxLen {
		cut := MaxLen
		for cut > 0 && !utf8.RuneStart(k[cut]) {
			cut--
		}
		k = strings.TrimRight(k[:cut], "-")
	}
	return k, nil
}
