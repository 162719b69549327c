package yield

import (
	"math"
	"time"
)

// YieldAnalytics summarizes the yield changes inside a window. CumulativeYield
// in the companion trend series starts at 0 for the window: these figures are
// a relative trend, never the tree's absolute fruit count.
type YieldAnalytics struct {
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Days           int       `json:"days"`
	TotalEvents    int       `json:"total_events"`
	TotalIncrease  int       `json:"total_increase"`
	TotalDecrease  int       `json:"total_decrease"`
	NetChange      int       `json:"net_change"`
	IncreaseEvents int       `json:"increase_events"`
	DecreaseEvents int       `json:"decrease_events"`
	PeakYield      int       `json:"peak_yield"`
	LowestYield    int       `json:"lowest_yield"`
	YieldVelocity  float64   `json:"yield_velocity"`
	AverageChange  float64   `json:"average_change"`
}

// YieldTrendPoint is one step of the cumulative trend chart.
type YieldTrendPoint struct {
	Date            time.Time `json:"date"`
	CumulativeYield int       `json:"cumulative_yield"`
	Change          int       `json:"change"`
	Reason          string    `json:"reason"`
	ActivityType    string    `json:"activity_type"`
}

// CalculateYieldAnalytics aggregates the events falling inside
// [startDate, endDate] (inclusive). An inverted window is treated as empty:
// zeroed analytics, never an error, since date pickers pass transient state.
// Pure function of its inputs; performs no I/O.
func CalculateYieldAnalytics(events []YieldChangeEvent, startDate, endDate time.Time) YieldAnalytics {
	analytics := YieldAnalytics{
		StartDate: startDate,
		EndDate:   endDate,
		Days:      windowDays(startDate, endDate),
	}
	if endDate.Before(startDate) {
		return analytics
	}

	filtered := filterWindow(events, startDate, endDate)
	analytics.TotalEvents = len(filtered)

	cumulative := 0
	for index, event := range filtered {
		if event.Change > 0 {
			analytics.TotalIncrease += event.Change
			analytics.IncreaseEvents++
		} else if event.Change < 0 {
			analytics.TotalDecrease += -event.Change
			analytics.DecreaseEvents++
		}

		cumulative += event.Change
		if index == 0 {
			analytics.PeakYield = cumulative
			analytics.LowestYield = cumulative
			continue
		}
		if cumulative > analytics.PeakYield {
			analytics.PeakYield = cumulative
		}
		if cumulative < analytics.LowestYield {
			analytics.LowestYield = cumulative
		}
	}

	analytics.NetChange = analytics.TotalIncrease - analytics.TotalDecrease
	if len(filtered) > 0 {
		analytics.YieldVelocity = float64(analytics.NetChange) / float64(analytics.Days)
		analytics.AverageChange = float64(analytics.NetChange) / float64(len(filtered))
	}
	return analytics
}

// GenerateYieldTrendData walks the in-window events in date order and emits
// one point per event with the running cumulative total. Output dates are
// non-decreasing. Pure function of its inputs.
func GenerateYieldTrendData(events []YieldChangeEvent, startDate, endDate time.Time) []YieldTrendPoint {
	if endDate.Before(startDate) {
		return []YieldTrendPoint{}
	}

	filtered := filterWindow(events, startDate, endDate)
	points := make([]YieldTrendPoint, 0, len(filtered))
	cumulative := 0
	for _, event := range filtered {
		cumulative += event.Change
		points = append(points, YieldTrendPoint{
			Date:            event.Date,
			CumulativeYield: cumulative,
			Change:          event.Change,
			Reason:          event.Reason,
			ActivityType:    event.ActivityType,
		})
	}
	return points
}

// filterWindow keeps events with date in [startDate, endDate], both inclusive,
// preserving the caller's ordering.
func filterWindow(events []YieldChangeEvent, startDate, endDate time.Time) []YieldChangeEvent {
	filtered := make([]YieldChangeEvent, 0, len(events))
	for _, event := range events {
		if event.Date.Before(startDate) || event.Date.After(endDate) {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

// windowDays is the window span in whole days, rounded up, never below 1.
func windowDays(startDate, endDate time.Time) int {
	if !endDate.After(startDate) {
		return 1
	}
	days := int(math.Ceil(endDate.Sub(startDate).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}
