package invoices

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	require.True(t, StatusReadyForTaxInvoice.CanTransitionTo(StatusReadyToSend))
	require.True(t, StatusReadyToSend.CanTransitionTo(StatusSent))
	require.True(t, StatusSent.CanTransitionTo(StatusSent))

	require.False(t, StatusReadyForTaxInvoice.CanTransitionTo(StatusSent))
	require.False(t, StatusSent.CanTransitionTo(StatusReadyToSend))
	require.False(t, StatusReadyToSend.CanTransitionTo(StatusReadyForTaxInvoice))
}
