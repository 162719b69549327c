package yield

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period names a preset analytics window anchored on "now" at call time.
type Period string

const (
	PeriodLast7Days  Period = "last_7_days"
	PeriodLast30Days Period = "last_30_days"
	PeriodLast90Days Period = "last_90_days"
	PeriodLastYear   Period = "last_year"
	PeriodAllTime    Period = "all_time"
)

// ErrUnknownPeriod indicates a period name outside the preset set.
var ErrUnknownPeriod = errors.New("yield: unknown period")

// Periods lists every preset, in dashboard display order.
func Periods() []Period {
	return []Period{PeriodLast7Days, PeriodLast30Days, PeriodLast90Days, PeriodLastYear, PeriodAllTime}
}

// ParsePeriod validates a raw period name.
func ParsePeriod(rawInput string) (Period, error) {
	period := Period(strings.ToLower(strings.TrimSpace(rawInput)))
	switch period {
	case PeriodLast7Days, PeriodLast30Days, PeriodLast90Days, PeriodLastYear, PeriodAllTime:
		return period, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, rawInput)
	}
}

// Window resolves the preset to a concrete [start, end] pair ending at now.
// All-time starts at the epoch; no farm log predates it.
func (p Period) Window(now time.Time) (time.Time, time.Time) {
	end := now
	switch p {
	case PeriodLast7Days:
		return end.AddDate(0, 0, -7), end
	case PeriodLast30Days:
		return end.AddDate(0, 0, -30), end
	case PeriodLast90Days:
		return end.AddDate(0, 0, -90), end
	case PeriodLastYear:
		return end.AddDate(-1, 0, 0), end
	default:
		return time.Unix(0, 0).UTC(), end
	}
}
