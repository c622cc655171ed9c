package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExternalErrorKeepsCauseChain(t *testing.T) {
	err := ExternalError("render pdf", context.DeadlineExceeded)

	require.ErrorIs(t, err, ErrExternalService)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "render pdf")
}

func TestUserSafeMessageStripsUnknownErrors(t *testing.T) {
	require.Equal(t, "internal error", UserSafeMessage(errors.New("pq: column does not exist")))
	require.Contains(t, UserSafeMessage(ValidationError("quantity must not be negative")), "quantity")
}
