package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// shortIDAlphabet excludes visually confusing glyphs (0, 1, I, O) so a generated
// identifier stays legible when a clinician reads it off a rendered patient portrait.
const shortIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const shortIDLength = 4

const shortIDMaxAttempts = 1000

// NewShort generates a 4-character identifier from shortIDAlphabet that does not
// already appear in existing, retrying on collision up to shortIDMaxAttempts times.
// 32^4 = 1,048,576 possible values, so collisions are rare for any one sequence of
// a PatientRecord; the bound exists only to turn a pathological caller (an
// existing set already close to exhaustion) into a clear error instead of a hang.
func NewShort(existing map[string]struct{}) (string, error) {
	for attempt := 0; attempt < shortIDMaxAttempts; attempt++ {
		candidate, err := randomShortID()
		if err != nil {
			return "", fmt.Errorf("generate short id: %w", err)
		}
		if _, taken := existing[candidate]; !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("generate short id: exhausted %d attempts with %d existing ids", shortIDMaxAttempts, len(existing))
}

func randomShortID() (string, error) {
	out := make([]byte, shortIDLength)
	alphabetLen := big.NewInt(int64(len(shortIDAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		out[i] = shortIDAlphabet[n.Int64()]
	}
	return string(out), nil
}
