package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/t77yq/uni-helper/internal/model"
)

func TestWithFlagsUrgent(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)

	flagged := WithFlags(model.Alert{RequestTitle: "[긴급] 결재 오류"}, now)
	require.True(t, flagged.IsUrgent)

	flagged = WithFlags(model.Alert{RequestTitle: "결재 오류"}, now)
	require.False(t, flagged.IsUrgent)
}

func TestWithFlagsDelayed(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)

	// Processed eight days ago
	old := now.Add(-8 * 24 * time.Hour).Format("2006-01-02 15:04:05")
	flagged := WithFlags(model.Alert{ProcessDate: old}, now)
	require.True(t, flagged.IsDelayed)

	// Processed yesterday
	recent := now.Add(-24 * time.Hour).Format("2006-01-02 15:04:05")
	flagged = WithFlags(model.Alert{ProcessDate: recent}, now)
	require.False(t, flagged.IsDelayed)

	// Unparseable timestamp never flags
	flagged = WithFlags(model.Alert{ProcessDate: "unknown"}, now)
	require.False(t, flagged.IsDelayed)
}

func TestWithFlagsPending(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)
	twoHoursAgo := now.Add(-2 * time.Hour).Format("2006-01-02 15:04:05")

	// Received two hours ago and still untouched
	flagged := WithFlags(model.Alert{
		Status:         "접수",
		RequestDateAll: twoHoursAgo,
	}, now)
	require.True(t, flagged.IsPending)

	// Old but no longer in the received status
	flagged = WithFlags(model.Alert{
		Status:         "처리중",
		RequestDateAll: twoHoursAgo,
	}, now)
	require.False(t, flagged.IsPending)

	// Received just now
	flagged = WithFlags(model.Alert{
		Status:         "접수",
		RequestDateAll: now.Add(-10 * time.Minute).Format("2006-01-02 15:04:05"),
	}, now)
	require.False(t, flagged.IsPending)
}

func TestWithFlagsDateOnlyLayout(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)

	flagged := WithFlags(model.Alert{ProcessDate: "2025-05-01"}, now)
	require.True(t, flagged.IsDelayed)
}
