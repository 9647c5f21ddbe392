package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/koustreak/dbinit/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"cancelled and wrapped", fmt.Errorf("put: %w", context.Canceled), errs.ErrKindTimeout},
		{"dial failure", errors.New("dial tcp 127.0.0.1:9000: connect: connection refused"), errs.ErrKindConnectionFailed},
		{"no such bucket", miniogo.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey"}, errs.ErrKindNotFound},
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"bad key", miniogo.ErrorResponse{Code: "KeyTooLongError", StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidInput},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, errs.ErrKindTimeout},
		{"precondition", miniogo.ErrorResponse{Code: "PreconditionFailed", StatusCode: http.StatusPreconditionFailed}, errs.ErrKindConflict},
		{"status only 401", miniogo.ErrorResponse{StatusCode: http.StatusUnauthorized}, errs.ErrKindPermissionDenied},
		{"status only 503", miniogo.ErrorResponse{StatusCode: http.StatusServiceUnavailable}, errs.ErrKindConnectionFailed},
		{"unclassified", miniogo.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, errs.ErrKindQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "failed to put object")
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, "failed to put object", got.Message)
			assert.Equal(t, tt.err, got.Cause)
		})
	}

	assert.Nil(t, mapError(nil, "noop"))
}
