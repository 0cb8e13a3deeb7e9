package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesSixDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestExpiryIsTenMinutesOut(t *testing.T) {
	expiry := Expiry()
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), expiry, time.Second)
}
