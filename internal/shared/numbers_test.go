package shared

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDocumentNumberFormat(t *testing.T) {
	issued := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	q := DocumentNumber("Q", issued)
	require.Regexp(t, regexp.MustCompile(`^Q-20250201-[0-9A-F]{4}$`), q)

	inv := DocumentNumber("INV", issued)
	require.Regexp(t, regexp.MustCompile(`^INV-20250201-[0-9A-F]{4}$`), inv)
}
