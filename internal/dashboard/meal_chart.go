package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

type MealChartPoint struct {
	Label      string           `json:"label"` // day, week start or month start
	ByShift    map[string]int64 `json:"by_shift"`
	Individual int64            `json:"individual"`
	Bulk       int64            `json:"bulk"`
	Total      int64            `json:"total"`
}

type MealChartTotals struct {
	ByShift    map[string]int64 `json:"by_shift"`
	Individual int64            `json:"individual"`
	Bulk       int64            `json:"bulk"`
	Total      int64            `json:"total"`
}

type MealChartResponse struct {
	Period      string           `json:"period"` // daily | weekly | monthly
	From        string           `json:"from"`
	To          string           `json:"to"`
	Points      []MealChartPoint `json:"points"`
	GrandTotals MealChartTotals  `json:"grand_totals"`
}

type Counter interface {
	CountMealsByDate(ctx context.Context, fromDate, toDate string) ([]store.MealCount, error)
}

type ShiftLister interface {
	ListShifts(ctx context.Context) ([]models.Shift, error)
}

// Window returns the first and last calendar day covered by count buckets
// of period ending today.
func Window(period string, count int, now time.Time, loc *time.Location) (string, time.Time, time.Time) {
	if loc != nil {
		now = now.In(loc)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case "weekly":
		end := today
		start := weekStart(today).AddDate(0, 0, -7*(count-1))
		return period, start, end
	case "monthly":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return period, first.AddDate(0, -(count - 1), 0), today
	}
	return "daily", today.AddDate(0, 0, -(count - 1)), today
}

func weekStart(t time.Time) time.Time {
	// Monday-based weeks.
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func bucketOf(period string, day time.Time) time.Time {
	switch period {
	case "weekly":
		return weekStart(day)
	case "monthly":
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	}
	return day
}

func step(period string, t time.Time) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "monthly":
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// BuildMealChart buckets per-day counts into points, one per period step
// between start and end, empty buckets included.
func BuildMealChart(period string, start, end time.Time, counts []store.MealCount, shifts []models.Shift) MealChartResponse {
	names := make(map[uint]string, len(shifts))
	for _, s := range shifts {
		names[s.ID] = string(s.Name)
	}

	res := MealChartResponse{
		Period:      period,
		From:        start.Format(models.DateLayout),
		To:          end.Format(models.DateLayout),
		Points:      []MealChartPoint{},
		GrandTotals: MealChartTotals{ByShift: map[string]int64{}},
	}
	index := map[string]int{}
	for b := bucketOf(period, start); !b.After(end); b = step(period, b) {
		label := b.Format(models.DateLayout)
		index[label] = len(res.Points)
		res.Points = append(res.Points, MealChartPoint{Label: label, ByShift: map[string]int64{}})
	}

	for _, c := range counts {
		day, err := time.ParseInLocation(models.DateLayout, c.Date, start.Location())
		if err != nil {
			continue
		}
		i, ok := index[bucketOf(period, day).Format(models.DateLayout)]
		if !ok {
			continue
		}
		name, ok := names[c.ShiftID]
		if !ok {
			name = fmt.Sprintf("shift-%d", c.ShiftID)
		}

		p := &res.Points[i]
		p.ByShift[name] += c.Total()
		p.Individual += c.Individual
		p.Bulk += c.Bulk
		p.Total += c.Total()

		res.GrandTotals.ByShift[name] += c.Total()
		res.GrandTotals.Individual += c.Individual
		res.GrandTotals.Bulk += c.Bulk
		res.GrandTotals.Total += c.Total()
	}
	return res
}

// GET /api/dashboard/meal-chart?period=daily&count=7
func MealChartHandler(counter Counter, shifts ShiftLister, loc *time.Location, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		count := c.QueryInt("count", 0)
		if c.Query("count") != "" && count <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "count invalido")
		}
		if count == 0 {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				count = 7
			}
		}
		if count > 366 {
			count = 366
		}

		period, start, end := Window(period, count, now(), loc)

		ctx := c.UserContext()
		counts, err := counter.CountMealsByDate(ctx, start.Format(models.DateLayout), end.Format(models.DateLayout))
		if err != nil {
			logging.Error(ctx, "meal chart query failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo calcular el grafico")
		}
		list, err := shifts.ListShifts(ctx)
		if err != nil {
			logging.Error(ctx, "meal chart shifts failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo calcular el grafico")
		}

		return c.JSON(BuildMealChart(period, start, end, counts, list))
	}
}
