package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWireDate(t *testing.T) {
	due := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-06-01 10:00:00.000000 +0300", FormatWireDate(due))

	// Sub-second precision never leaks into the microsecond field
	due = time.Date(2025, time.January, 9, 7, 5, 3, 123456789, time.UTC)
	assert.Equal(t, "2025-01-09 07:05:03.000000 +0300", FormatWireDate(due))
}

func TestWireDateRoundTrip(t *testing.T) {
	inputs := []time.Time{
		time.Date(2025, time.June, 1, 10, 0, 0, 0, time.Local),
		time.Date(2024, time.February, 29, 23, 59, 59, 0, time.Local),
		time.Date(2030, time.December, 31, 0, 0, 0, 0, time.Local),
	}

	for _, in := range inputs {
		t.Run(in.String(), func(t *testing.T) {
			out, err := ParseWireDate(FormatWireDate(in))
			require.NoError(t, err)

			assert.Equal(t, in.Year(), out.Year())
			assert.Equal(t, in.Month(), out.Month())
			assert.Equal(t, in.Day(), out.Day())
			assert.Equal(t, in.Hour(), out.Hour())
			assert.Equal(t, in.Minute(), out.Minute())
			assert.Equal(t, in.Second(), out.Second())
		})
	}
}

func TestParseWireDateLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"wire", "2025-06-01 10:00:00.000000 +0300", time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)},
		{"rfc3339", "2025-06-01T10:00:00+03:00", time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)},
		{"datetime-local", "2025-06-01T10:00", time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)},
		{"date only", "2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)},
		{"day first", "01/06/2025", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWireDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestParseWireDateInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "yesterday-ish", "2025-13-45"} {
		_, err := ParseWireDate(input)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", input)
	}
}

func TestParseOptionalWireDate(t *testing.T) {
	assert.Nil(t, ParseOptionalWireDate(nil))

	bad := "garbage"
	assert.Nil(t, ParseOptionalWireDate(&bad))

	good := "2025-06-01 10:00:00.000000 +0300"
	got := ParseOptionalWireDate(&good)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Hour())
}

func TestParseDueInput(t *testing.T) {
	// Wednesday
	now := time.Date(2025, time.June, 4, 9, 30, 0, 0, time.Local)

	t.Run("no date", func(t *testing.T) {
		for _, in := range []string{"", "none", "No date"} {
			due, err := ParseDueInput(in, now)
			require.NoError(t, err)
			assert.Nil(t, due)
		}
	})

	t.Run("today", func(t *testing.T) {
		due, err := ParseDueInput("today", now)
		require.NoError(t, err)
		require.NotNil(t, due)
		assert.Equal(t, 4, due.Day())
		assert.Equal(t, 23, due.Hour())
	})

	t.Run("tomorrow", func(t *testing.T) {
		due, err := ParseDueInput("tomorrow", now)
		require.NoError(t, err)
		assert.Equal(t, 5, due.Day())
	})

	t.Run("weekday is always in the future", func(t *testing.T) {
		due, err := ParseDueInput("wed", now)
		require.NoError(t, err)
		assert.Equal(t, 11, due.Day())

		due, err = ParseDueInput("friday", now)
		require.NoError(t, err)
		assert.Equal(t, 6, due.Day())
	})

	t.Run("datetime-local", func(t *testing.T) {
		due, err := ParseDueInput("2025-06-01T10:00", now)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01 10:00:00.000000 +0300", FormatWireDate(*due))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDueInput("someday", now)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestDeriveProjectCompleted(t *testing.T) {
	done := time.Now()

	assert.True(t, DeriveProjectCompleted(StatusCompleted, nil))
	assert.True(t, DeriveProjectCompleted("completed", nil))
	assert.True(t, DeriveProjectCompleted(StatusPending, &done))
	assert.False(t, DeriveProjectCompleted(StatusOngoing, nil))
	assert.False(t, DeriveProjectCompleted("", nil))
}

func TestValidateNames(t *testing.T) {
	assert.NoError(t, ValidateProjectName("Groceries"))
	assert.Error(t, ValidateProjectName("   "))
	assert.Error(t, ValidateProjectName(string(make([]rune, MaxProjectNameLen+1))))

	assert.NoError(t, ValidateTaskName("Milk"))
	assert.Error(t, ValidateTaskName(""))

	var nameErr *NameError
	err := ValidateTaskName(string(make([]rune, MaxTaskNameLen+1)))
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, MaxTaskNameLen, nameErr.Limit)
}
