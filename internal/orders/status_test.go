package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusPaid))
	require.True(t, CanTransition(StatusPending, StatusCanceled))
	require.True(t, CanTransition(StatusPaid, StatusShipped))
	require.True(t, CanTransition(StatusPaid, StatusDelivered))
	require.True(t, CanTransition(StatusShipped, StatusDelivered))

	// mundur atau dari terminal state: tidak boleh
	require.False(t, CanTransition(StatusPaid, StatusPending))
	require.False(t, CanTransition(StatusCanceled, StatusPending))
	require.False(t, CanTransition(StatusCanceled, StatusPaid))
	require.False(t, CanTransition(StatusDelivered, StatusCanceled))
	require.False(t, CanTransition(StatusFailed, StatusPending))
}
