// Package gameid issues hand identifiers: UUIDv7 values written as 26
// lowercase Crockford base32 characters, so ids sort by creation time.
package gameid

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// New returns a fresh hand id.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does.
		panic(fmt.Sprintf("gameid: %v", err))
	}
	return Encode(id)
}

// Encode writes a UUID in the 26 character form.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Decode parses an id produced by New or Encode.
func Decode(s string) (uuid.UUID, error) {
	if err := Validate(s); err != nil {
		return uuid.Nil, err
	}
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode hand id: %w", err)
	}
	return uuid.FromBytes(raw)
}

// Validate checks that s has the shape of a hand id.
func Validate(s string) error {
	if len(s) != 26 {
		return fmt.Errorf("hand id must be 26 characters, got %d", len(s))
	}
	for i, r := range s {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("invalid character %q at position %d", r, i)
		}
	}
	// 128 bits fill 25.6 characters; the two trailing bits are padding.
	if strings.IndexByte(alphabet, s[25])&0x3 != 0 {
		return fmt.Errorf("hand id has non-zero padding bits")
	}
	return nil
}
