package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	cred, err := Hash("CorrectHorse1!")
	require.NoError(t, err)
	assert.True(t, strings.Contains(cred, ":"), "credential should encode salt and key")
	assert.True(t, Verify("CorrectHorse1!", cred))
}

func TestVerifyRejectsAlteredPassword(t *testing.T) {
	original := "CorrectHorse1!"
	cred, err := Hash(original)
	require.NoError(t, err)

	// Flip each character in turn; every variant must fail.
	for i := 0; i < len(original); i++ {
		altered := []byte(original)
		altered[i] ^= 0x01
		assert.False(t, Verify(string(altered), cred), "altered at index %d", i)
	}
}

func TestVerifyRejectsMalformedCredential(t *testing.T) {
	assert.False(t, Verify("whatever", "not-a-credential"))
	assert.False(t, Verify("whatever", "!!!:???"))
	assert.False(t, Verify("whatever", ""))
}

func TestHashProducesUniqueSalts(t *testing.T) {
	a, err := Hash("CorrectHorse1!")
	require.NoError(t, err)
	b, err := Hash("CorrectHorse1!")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "same password must hash differently per salt")
}

func TestValidateComplexity(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"too short", "short1A!", "at least 10 characters"},
		{"no symbol", "longenough1A", "symbol"},
		{"no digit", "LongEnough!!", "digit"},
		{"no uppercase", "longenough1!", "uppercase"},
		{"no lowercase", "LONGENOUGH1!", "lowercase"},
		{"valid", "LongEnough1A!", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateComplexity(tc.password)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestComplexityChecksLengthFirst(t *testing.T) {
	// Short and missing classes: length must be the reported reason.
	err := ValidateComplexity("abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10 characters")
}

func TestGeneratePassesOwnComplexityCheck(t *testing.T) {
	for _, length := range []int{10, 12, 20, 64} {
		for i := 0; i < 20; i++ {
			pw, err := Generate(length)
			require.NoError(t, err)
			assert.Len(t, pw, length)
			assert.NoError(t, ValidateComplexity(pw), "generated %q", pw)
		}
	}
}

func TestGenerateRaisesShortLengths(t *testing.T) {
	pw, err := Generate(4)
	require.NoError(t, err)
	assert.Len(t, pw, MinLength)
	assert.NoError(t, ValidateComplexity(pw))
}
