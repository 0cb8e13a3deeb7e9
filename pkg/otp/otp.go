package otp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// DefaultTTL is how long an emailed code stays valid.
const DefaultTTL = 10 * time.Minute

// Generate returns a 6-digit one-time code from crypto/rand.
func Generate() (string, error) {
	var n uint32
	if err := binary.Read(rand.Reader, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("failed to generate one-time code: %w", err)
	}
	code := 100000 + int(n%900000)
	return fmt.Sprintf("%06d", code), nil
}

// Expiry returns the deadline for a code generated now.
func Expiry() time.Time {
	return time.Now().Add(DefaultTTL)
}
