package testbank

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, s string) int64 {
	t.Helper()
	n, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return n
}
