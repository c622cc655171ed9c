package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatIDR(t *testing.T) {
	require.Equal(t, "Rp 1.953.600", FormatIDR(1953600))
	require.Equal(t, "Rp 0", FormatIDR(0))
	require.Equal(t, "Rp 100", FormatIDR(100))
}
