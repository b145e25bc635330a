package checkout

import "math/rand/v2"

const (
	refCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	refCodeLength   = 20
)

// NewRefCode generates a 20-character lowercase-alphanumeric reference code.
// Uniqueness is enforced by the database; the orchestrator regenerates on
// collision.
func NewRefCode() string {
	b := make([]byte, refCodeLength)
	for i := range b {
		b[i] = refCodeAlphabet[rand.IntN(len(refCodeAlphabet))]
	}
	return string(b)
}
