package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("Duplicate entry 'Acme Corp'")

	assert.Equal(t, "[conflict] insert failed: Duplicate entry 'Acme Corp'",
		Wrap(ErrKindConflict, "insert failed", cause).Error())
	assert.Equal(t, "[not_found] column missing", New(ErrKindNotFound, "column missing").Error())
}

func TestPredicates_TraverseWrappedChain(t *testing.T) {
	base := Wrap(ErrKindConflict, "dup", errors.New("1062"))
	wrapped := fmt.Errorf("insert organization: %w", base)

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrKindConflict, KindOf(wrapped))
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		kind ErrKind
		want bool
	}{
		{ErrKindConnectionFailed, true},
		{ErrKindTimeout, true},
		{ErrKindPermissionDenied, true},
		{ErrKindQueryFailed, false},
		{ErrKindConflict, false},
		{ErrKindNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnavailable(New(tt.kind, "x")))
		})
	}
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityNone, Max())
	assert.Equal(t, SeverityDiagnostic, Max(SeverityBenign, SeverityDiagnostic, SeverityNone))
	assert.Equal(t, SeverityFatal, Max(SeverityFatal, SeverityBenign))

	out, err := json.Marshal(map[string]Severity{"s": SeverityBenign})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"s":"benign"}`, string(out))

	var back map[string]Severity
	assert.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, SeverityBenign, back["s"])

	var bad Severity
	assert.True(t, IsInvalidInput(bad.UnmarshalText([]byte("catastrophic"))))
}
