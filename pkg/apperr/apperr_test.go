package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input"), KindValidation},
		{"conflict", Conflict("already exists"), KindConflict},
		{"permission", Permission("not allowed"), KindPermission},
		{"not found", NotFound("missing"), KindNotFound},
		{"persistence", Persistence(cause), KindPersistence},
		{"external", External("mail delivery failed", cause), KindExternal},
		{"plain error", errors.New("anonymous"), KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
			assert.True(t, Is(tc.err, tc.want))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("import line 3: %w", Conflict("duplicate mobile"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := External("smtp send failed", cause)

	assert.Equal(t, "smtp send failed: dial tcp: timeout", err.Error())
	assert.True(t, errors.Is(err, cause))
}
