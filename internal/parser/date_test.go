package parser

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialToTime_Epoch(t *testing.T) {
	t.Parallel()

	got := SerialToTime(45292)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	// 小数部分为当日时间
	got = SerialToTime(45292.5)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), got)
}

func TestDetectDateMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DateModeSerial, DetectDateMode([]string{"45292", "", "45300.25"}))
	assert.Equal(t, DateModeText, DetectDateMode([]string{"45292", "2024-01-05"}))
	assert.Equal(t, DateModeText, DetectDateMode([]string{"", " "}))
}

func TestNormalizeColumn_TextWithFailures(t *testing.T) {
	t.Parallel()

	times, valid, mode := NormalizeColumn([]string{"2024-03-15", "not a date", "", "15 Mar 2025"})
	require.Equal(t, DateModeText, mode)

	assert.True(t, valid[0])
	assert.True(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Equal(times[0]), "got %s", times[0])
	assert.False(t, valid[1])
	assert.False(t, valid[2])
	assert.True(t, valid[3])
	assert.Equal(t, 2025, times[3].Year())
	assert.Equal(t, time.March, times[3].Month())
}

func TestNormalizeColumn_Serial(t *testing.T) {
	t.Parallel()

	times, valid, mode := NormalizeColumn([]string{"45292", "45658"})
	require.Equal(t, DateModeSerial, mode)
	assert.True(t, valid[0] && valid[1])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), times[1])
}

func TestNormalizeValue_Idempotent(t *testing.T) {
	t.Parallel()

	first, ok := NormalizeValue(45292.0)
	require.True(t, ok)

	again, ok := NormalizeValue(first)
	require.True(t, ok)
	assert.Equal(t, first, again)

	fromText, ok := NormalizeValue(first.Format("2006-01-02"))
	require.True(t, ok)
	assert.True(t, first.Equal(fromText))
}

func TestNormalizeValue_Rejects(t *testing.T) {
	t.Parallel()

	_, ok := NormalizeValue(time.Time{})
	assert.False(t, ok)
	_, ok = NormalizeValue(-3.0)
	assert.False(t, ok)
	_, ok = NormalizeValue(struct{}{})
	assert.False(t, ok)
}

func TestNormalizeColumn_NaNIsNotADate(t *testing.T) {
	t.Parallel()

	times, valid, mode := NormalizeColumn([]string{"45292", "NaN", "+Inf"})
	require.Equal(t, DateModeText, mode)
	assert.True(t, valid[0])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), times[0])
	assert.False(t, valid[1])
	assert.False(t, valid[2])

	_, ok := NormalizeValue(math.NaN())
	assert.False(t, ok)
	_, ok = NormalizeValue(math.Inf(1))
	assert.False(t, ok)
	_, ok = ParseDateText("nan")
	assert.False(t, ok)
}
