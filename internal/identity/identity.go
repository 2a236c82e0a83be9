// Package identity derives the stable natural key for a business.
package identity

import (
	"crypto/sha256"
	"fmt"
)

// Prefix marks directory identity keys so they are distinguishable
// from submission uuids in logs and URLs.
const Prefix = "biz-"

// GenerateID derives the identity key from the comparison forms of a
// business name and address. Equal inputs always produce the same id;
// any change to either input changes it. No clock, randomness, or
// counters are involved, so re-submission is idempotent.
func GenerateID(nameKey, addressKey string) string {
	h := sha256.Sum256([]byte(nameKey + "|" + addressKey))
	return fmt.Sprintf("%s%x", Prefix, h[:12])
}
