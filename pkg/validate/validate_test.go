package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("ahmed@example.com"))
	assert.NoError(t, Email("a.b+c@sub.domain.org"))
	assert.Error(t, Email("not-an-email"))
	assert.Error(t, Email("missing@tld"))
	assert.Error(t, Email("@example.com"))
}

func TestUsername(t *testing.T) {
	assert.NoError(t, Username("coach_01"))
	assert.NoError(t, Username("abc"))
	assert.Error(t, Username("ab"))
	assert.Error(t, Username("has space"))
	assert.Error(t, Username("bad-dash"))
}

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"01012345678", "01012345678"},
		{"+201012345678", "01012345678"},
		{"00201012345678", "01012345678"},
		{"201012345678", "01012345678"},
		{"010 1234 5678", "01012345678"},
		{"010-1234-5678", "01012345678"},
		{"(010) 1234.5678", "01012345678"},
		{"+20 10 1234 5678", "01012345678"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeMobile(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeMobileIsIdempotent(t *testing.T) {
	inputs := []string{
		"01012345678", "+201012345678", "00201012345678",
		"010 1234 5678", "garbage", "", "20155",
	}
	for _, in := range inputs {
		once := NormalizeMobile(in)
		assert.Equal(t, once, NormalizeMobile(once), "input %q", in)
	}
}

func TestMobile(t *testing.T) {
	assert.NoError(t, Mobile("01012345678"))
	assert.NoError(t, Mobile("01512345678"))
	assert.Error(t, Mobile("0101234567"))    // too short
	assert.Error(t, Mobile("010123456789"))  // too long
	assert.Error(t, Mobile("01312345678"))   // bad carrier digit
	assert.Error(t, Mobile("+201012345678")) // not normalized
}

func TestNormalizedForeignFormatMatchesLocal(t *testing.T) {
	// The same subscriber written two ways must collide after normalization.
	assert.Equal(t, NormalizeMobile("+201012345678"), NormalizeMobile("01012345678"))
}

func TestName(t *testing.T) {
	assert.NoError(t, Name("Omar"))
	assert.NoError(t, Name("Mary Jane O'Neil"))
	assert.Error(t, Name("X"))
	assert.Error(t, Name("1234"))
}
