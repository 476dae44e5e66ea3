package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2025, time.December, 25, 17, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.June, 15, 23, 59, 0, 0, time.UTC),
		time.Date(2024, time.February, 29, 12, 30, 0, 0, time.UTC),
	}

	for _, d := range dates {
		for offset := -12; offset <= 14; offset++ {
			got := ToDisplay(ToStored(d, offset), offset)
			assert.Equal(t, d, got, "date %v offset %d", d, offset)
		}
	}
}

func TestToStoredShiftsByOffset(t *testing.T) {
	local := time.Date(2025, time.December, 25, 17, 0, 0, 0, time.UTC)

	t.Run("offset zero stores the wall clock as UTC", func(t *testing.T) {
		stored := ToStored(local, 0)
		assert.Equal(t, local, stored)
		assert.Equal(t, "Thu, 25 Dec 2025 17:00", FormatDisplay(ToDisplay(stored, 0)))
	})

	t.Run("positive offset stores an earlier instant", func(t *testing.T) {
		stored := ToStored(local, 2)
		assert.Equal(t, local.Add(-2*time.Hour), stored)
	})

	t.Run("negative offset stores a later instant", func(t *testing.T) {
		stored := ToStored(local, -5)
		assert.Equal(t, local.Add(5*time.Hour), stored)
	})

	t.Run("caller location is ignored", func(t *testing.T) {
		warsaw, _ := time.LoadLocation("Europe/Warsaw")
		inWarsaw := time.Date(2025, time.December, 25, 17, 0, 0, 0, warsaw)
		assert.Equal(t, ToStored(local, 3), ToStored(inWarsaw, 3))
	})
}

func TestParseInput(t *testing.T) {
	t.Run("movie night scenario", func(t *testing.T) {
		parsed, err := ParseInput("25/12/2025 17:00")
		assert.NoError(t, err)

		stored := ToStored(parsed, 0)
		display := ToDisplay(stored, 0)
		assert.Equal(t, 2025, display.Year())
		assert.Equal(t, time.December, display.Month())
		assert.Equal(t, 25, display.Day())
		assert.Equal(t, 17, display.Hour())
		assert.Equal(t, 0, display.Minute())
	})

	t.Run("single digit day and hour", func(t *testing.T) {
		parsed, err := ParseInput("1/2/2026 9:05")
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.February, 1, 9, 5, 0, 0, time.UTC), parsed)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, s := range []string{"", "tomorrow", "2025-12-25 17:00", "25/12/2025", "25/12/2025 17", "32/13/2025 25:61"} {
			_, err := ParseInput(s)
			assert.Error(t, err, "input %q", s)
		}
	})
}

func TestFormatDisplay(t *testing.T) {
	d := time.Date(2025, time.December, 25, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, "Thu, 25 Dec 2025 17:00", FormatDisplay(d))
}
