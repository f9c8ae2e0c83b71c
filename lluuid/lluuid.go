// Package lluuid carries UUID helpers shared by services that exchange LLSD:
// a null constant, anonymized generation, and tolerant string validation.
package lluuid

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Regex matches a UUID with or without hyphens, for embedding in larger
// expressions.
const Regex = `\b(?:[a-fA-F0-9]{8}-?[a-fA-F0-9]{4}-?[a-fA-F0-9]{4}-?[a-fA-F0-9]{4}-?[a-fA-F0-9]{12})\b`

// Null is the all-zero UUID.
var Null = uuid.UUID{}

// Generate returns the md5 hash of a freshly generated time-based UUID.
// Hashing strips the node and timestamp structure out of the v1 input, so
// the result is effectively random and carries no host identity.
func Generate() (uuid.UUID, error) {
	v1, err := uuid.NewUUID()
	if err != nil {
		return Null, err
	}
	sum := md5.Sum(v1[:])
	return uuid.FromBytes(sum[:])
}

// IsStrUUID reports whether s parses as a UUID. Hyphens are optional and
// case is ignored, but leading or trailing garbage is rejected.
func IsStrUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
