package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2026, time.October, 19, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "reports/u-42/2026-10-19/t-1.txt", ObjectName("u-42", "t-1", at))
}
