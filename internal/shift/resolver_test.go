package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comedor-backend/internal/models"
)

func TestResolveCoversEveryMinute(t *testing.T) {
	counts := map[models.ShiftName]int{}
	for m := 0; m < MinutesPerDay; m++ {
		name := Resolve(m)
		require.NotEmpty(t, name, "minute %d", m)

		claimed := 0
		for _, w := range []Window{Breakfast, Lunch, Dinner} {
			if w.Contains(m) {
				claimed++
			}
		}
		require.LessOrEqual(t, claimed, 1, "minute %d claimed by more than one window", m)
		if claimed == 0 {
			require.Equal(t, models.ShiftColdRation, name, "minute %d", m)
		}
		counts[name]++
	}

	assert.Equal(t, 271, counts[models.ShiftBreakfast])
	assert.Equal(t, 181, counts[models.ShiftLunch])
	assert.Equal(t, 330, counts[models.ShiftDinner])
	assert.Equal(t, MinutesPerDay, counts[models.ShiftBreakfast]+counts[models.ShiftLunch]+
		counts[models.ShiftDinner]+counts[models.ShiftColdRation])
}

func TestResolveBoundaries(t *testing.T) {
	cases := []struct {
		minute int
		want   models.ShiftName
	}{
		{0, models.ShiftColdRation},
		{239, models.ShiftColdRation},
		{240, models.ShiftBreakfast},
		{510, models.ShiftBreakfast},
		{511, models.ShiftColdRation},
		{689, models.ShiftColdRation},
		{690, models.ShiftLunch},
		{870, models.ShiftLunch},
		{871, models.ShiftColdRation},
		{1050, models.ShiftColdRation},
		{1051, models.ShiftDinner},
		{1380, models.ShiftDinner},
		{1381, models.ShiftColdRation},
		{1439, models.ShiftColdRation},
		{1440 + 700, models.ShiftLunch},
		{-1, models.ShiftColdRation},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Resolve(tc.minute), "minute %d", tc.minute)
	}
}

func TestResolveAtUsesLocalClock(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	noon := time.Date(2025, 6, 18, 12, 0, 0, 0, lima)

	assert.Equal(t, models.ShiftLunch, ResolveAt(noon))
	// 12:00 in Lima is 17:00 UTC, which is cold-ration.
	assert.Equal(t, models.ShiftColdRation, ResolveAt(noon.UTC()))
}

func TestWindowWraparound(t *testing.T) {
	night := Window{Start: 1381, End: 239}

	assert.True(t, night.Contains(1381))
	assert.True(t, night.Contains(0))
	assert.True(t, night.Contains(239))
	assert.False(t, night.Contains(240))
	assert.False(t, night.Contains(1380))
}

func TestResolveFromTable(t *testing.T) {
	shifts := models.DefaultShifts()
	for i := range shifts {
		shifts[i].ID = uint(i + 1)
	}

	t.Run("matches configured window", func(t *testing.T) {
		s, ok := ResolveFromTable(shifts, 700)
		require.True(t, ok)
		assert.Equal(t, models.ShiftLunch, s.Name)
	})

	t.Run("overnight window", func(t *testing.T) {
		s, ok := ResolveFromTable(shifts, 30)
		require.True(t, ok)
		assert.Equal(t, models.ShiftColdRation, s.Name)
	})

	t.Run("gap falls back to cold-ration", func(t *testing.T) {
		s, ok := ResolveFromTable(shifts, 600)
		require.True(t, ok)
		assert.Equal(t, models.ShiftColdRation, s.Name)
	})

	t.Run("empty table", func(t *testing.T) {
		_, ok := ResolveFromTable(nil, 600)
		assert.False(t, ok)
	})
}
