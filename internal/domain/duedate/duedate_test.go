package duedate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		due  *time.Time
		want Status
	}{
		{"no date", nil, StatusNoDate},
		{"one second ago", ptr(now.Add(-time.Second)), StatusOverdue},
		{"exactly now", ptr(now), StatusDueSoon},
		{"in 10 days", ptr(now.Add(10 * Day)), StatusDueSoon},
		{"in exactly 30 days", ptr(now.Add(30 * Day)), StatusDueSoon},
		{"in 30 days and a second", ptr(now.Add(30*Day + time.Second)), StatusUpToDate},
		{"in a year", ptr(now.AddDate(1, 0, 0)), StatusUpToDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.due, now))
		})
	}
}

func TestClassify_OverdueIffBeforeNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for offset := -72 * time.Hour; offset <= 72*time.Hour; offset += 7 * time.Hour {
		due := now.Add(offset)
		got := Classify(&due, now)
		assert.Equal(t, due.Before(now), got == StatusOverdue, "offset=%s", offset)
	}
}

func TestClassify_ComparesInUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	// 2025-02-28 20:00 en UTC-5 == 2025-03-01 01:00 UTC, no vencida.
	due := time.Date(2025, 2, 28, 20, 0, 0, 0, loc)

	assert.Equal(t, StatusDueSoon, Classify(&due, now))
}

func TestPolicy_CustomWindow(t *testing.T) {
	now := date(2025, 1, 1)
	due := now.Add(10 * Day)
	p := Policy{DueSoonWindow: 7 * Day}

	assert.Equal(t, StatusUpToDate, p.Classify(&due, now))
	assert.Equal(t, StatusDueSoon, Policy{}.Classify(&due, now), "zero window falls back to default")
}

func TestAdvance(t *testing.T) {
	cases := []struct {
		name string
		due  time.Time
		f    Frequency
		want time.Time
	}{
		{"daily", date(2025, 12, 31), FrequencyDaily, date(2026, 1, 1)},
		{"weekly", date(2025, 2, 25), FrequencyWeekly, date(2025, 3, 4)},
		{"monthly plain", date(2025, 4, 15), FrequencyMonthly, date(2025, 5, 15)},
		{"monthly clamps jan 31", date(2025, 1, 31), FrequencyMonthly, date(2025, 2, 28)},
		{"monthly clamps leap", date(2024, 1, 31), FrequencyMonthly, date(2024, 2, 29)},
		{"monthly december rolls year", date(2025, 12, 31), FrequencyMonthly, date(2026, 1, 31)},
		{"monthly clamps to 30", date(2025, 3, 31), FrequencyMonthly, date(2025, 4, 30)},
		{"yearly plain", date(2025, 7, 4), FrequencyYearly, date(2026, 7, 4)},
		{"yearly feb 29 to non leap", date(2024, 2, 29), FrequencyYearly, date(2025, 2, 28)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Advance(tc.due, tc.f)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestAdvance_PreservesTimeOfDay(t *testing.T) {
	due := time.Date(2025, 1, 31, 9, 30, 0, 0, time.UTC)
	got, err := Advance(due, FrequencyMonthly)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 9, 30, 0, 0, time.UTC), got)
}

func TestAdvance_Monotonic(t *testing.T) {
	start := date(2023, 1, 1)
	for i := 0; i < 800; i += 3 {
		d := start.AddDate(0, 0, i)
		for _, f := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly} {
			next, err := Advance(d, f)
			require.NoError(t, err)
			require.True(t, next.After(d), "advance(%s, %s) = %s", d, f, next)
		}
	}
}

func TestAdvance_OnceIsNotRecurring(t *testing.T) {
	_, err := Advance(date(2025, 1, 1), FrequencyOnce)
	require.ErrorIs(t, err, ErrNotRecurring)

	_, err = Advance(date(2025, 1, 1), Frequency("hourly"))
	require.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestDaysUntil(t *testing.T) {
	now := date(2025, 1, 10)
	assert.Equal(t, 5, DaysUntil(date(2025, 1, 15), now))
	assert.Equal(t, -3, DaysUntil(date(2025, 1, 7), now))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 1), got)

	got, err = ParseDate("2024-01-01T10:00:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	_, err = ParseDate("01/02/2024")
	require.Error(t, err)
}
