package shared

import (
	"crypto/rand"
	"fmt"
	"time"
)

// DocumentNumber builds a human-readable document number such as
// Q-20250201-1A2B or INV-20250201-00FF. The 4-hex-digit suffix is random;
// uniqueness is enforced by the database, callers retry on conflict.
func DocumentNumber(prefix string, issuedAt time.Time) string {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s-%s-%02X%02X", prefix, issuedAt.Format("20060102"), b[0], b[1])
}
