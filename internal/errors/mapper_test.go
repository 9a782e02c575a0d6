package errors_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/campus-match/internal/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"domain not found", svcErr.NotFound("profile %d", 7), codes.NotFound},
		{"gorm not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), codes.NotFound},
		{"invalid state", svcErr.InvalidState("profile %d is banned", 3), codes.FailedPrecondition},
		{"invalid argument", svcErr.Invalid("age out of range"), codes.InvalidArgument},
		{"duplicate key", gorm.ErrDuplicatedKey, codes.AlreadyExists},
		{"denied", svcErr.Denied("operator token required"), codes.PermissionDenied},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", fmt.Errorf("boom"), codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, status.Code(svcErr.Map(tc.err)))
		})
	}
}

func TestMapPassesStatusThrough(t *testing.T) {
	in := status.Error(codes.Unavailable, "redis down")
	assert.Equal(t, in, svcErr.Map(in))
	assert.NoError(t, svcErr.Map(nil))
}

func TestWrappedSentinels(t *testing.T) {
	err := fmt.Errorf("record interest: %w", svcErr.InvalidState("self-pair"))
	assert.True(t, svcErr.Is(err, svcErr.ErrInvalidState))
	assert.False(t, svcErr.Is(err, svcErr.ErrNotFound))
}
