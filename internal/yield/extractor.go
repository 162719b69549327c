package yield

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

// YieldChangeEvent is a structured quantity change recovered from a log note.
// For harvest-only logs PreviousYield and NewYield stay 0: the note records a
// removed quantity, not absolute levels, and callers must not infer one.
type YieldChangeEvent struct {
	Date          time.Time `json:"date"`
	ActivityType  string    `json:"activity_type"`
	PreviousYield int       `json:"previous_yield"`
	NewYield      int       `json:"new_yield"`
	Change        int       `json:"change"`
	Reason        string    `json:"reason"`
	Notes         string    `json:"notes"`
}

// Extractor recovers yield-change events from free-text log notes by trying
// matchers in priority order: the explicit before/after template, then
// harvest quantities, then bare keyword-plus-number. First match wins per
// log; a log matching nothing is silently skipped.
type Extractor struct {
	locale     Locale
	explicitRe *regexp.Regexp
	quantityRe *regexp.Regexp
	numberRe   *regexp.Regexp
}

// NewExtractor compiles the locale's templates into matchers.
func NewExtractor(locale Locale) *Extractor {
	unit := regexp.QuoteMeta(locale.FruitUnit)
	explicit := fmt.Sprintf(`%s\s*(\d+)\s*%s\s*%s\s*(\d+)\s*%s\s*\(([+-]?\d+)\)`,
		regexp.QuoteMeta(locale.FromWord), unit, regexp.QuoteMeta(locale.ToWord), unit)

	return &Extractor{
		locale:     locale,
		explicitRe: regexp.MustCompile(explicit),
		quantityRe: regexp.MustCompile(`(\d+)\s*` + unit),
		numberRe:   regexp.MustCompile(`\d+`),
	}
}

// ParseYieldEvents extracts every detectable quantity change from the logs
// and returns the events sorted ascending by date. Input order is not
// trusted. The function is pure: the same log set always yields the same
// event sequence.
func (e *Extractor) ParseYieldEvents(logs []farm.TreeLog) []YieldChangeEvent {
	events := make([]YieldChangeEvent, 0, len(logs))
	for _, entry := range logs {
		if !e.isCandidate(entry) {
			continue
		}
		event, ok := e.parseYieldChange(entry)
		if !ok {
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

// isCandidate excludes logs that cannot describe a yield change before any
// pattern matching runs.
func (e *Extractor) isCandidate(entry farm.TreeLog) bool {
	switch entry.ActivityType {
	case farm.ActivityYieldUpdate, farm.ActivityHarvest:
		return true
	}
	return containsAny(entry.Notes, e.locale.CandidateKeywords)
}

func (e *Extractor) parseYieldChange(entry farm.TreeLog) (YieldChangeEvent, bool) {
	event := YieldChangeEvent{
		Date:         entry.LogDate,
		ActivityType: entry.ActivityType,
		Notes:        entry.Notes,
		Reason:       e.deriveReason(entry),
	}

	// Explicit before/after template. The stated delta is author supplied
	// and trusted as written, even when it disagrees with new-previous.
	if match := e.explicitRe.FindStringSubmatch(entry.Notes); match != nil {
		previous, errPrev := strconv.Atoi(match[1])
		next, errNext := strconv.Atoi(match[2])
		change, errChange := strconv.Atoi(match[3])
		if errPrev == nil && errNext == nil && errChange == nil {
			event.PreviousYield = previous
			event.NewYield = next
			event.Change = change
			return event, true
		}
	}

	// Harvest without the explicit template: first "<N> <unit>" quantity is
	// the harvested count, recorded as a pure delta.
	if entry.ActivityType == farm.ActivityHarvest {
		if match := e.quantityRe.FindStringSubmatch(entry.Notes); match != nil {
			if quantity, err := strconv.Atoi(match[1]); err == nil {
				event.Change = -quantity
				return event, true
			}
		}
	}

	// Keyword fallback: direction from vocabulary, magnitude from the first
	// number anywhere in the text.
	if number, ok := e.firstNumber(entry.Notes); ok {
		if containsAny(entry.Notes, e.locale.IncreaseKeywords) {
			event.Change = number
			return event, true
		}
		if containsAny(entry.Notes, e.locale.DecreaseKeywords) {
			event.Change = -number
			return event, true
		}
	}

	return YieldChangeEvent{}, false
}

// deriveReason labels the event: text before the first colon when present,
// otherwise the keyword class, otherwise the raw activity type.
func (e *Extractor) deriveReason(entry farm.TreeLog) string {
	if index := strings.Index(entry.Notes, ":"); index > 0 {
		return strings.TrimSpace(entry.Notes[:index])
	}

	switch {
	case containsAny(entry.Notes, e.locale.IncreaseKeywords):
		return e.locale.ReasonIncrease
	case containsAny(entry.Notes, e.locale.HarvestKeywords) || entry.ActivityType == farm.ActivityHarvest:
		return e.locale.ReasonHarvest
	case containsAny(entry.Notes, e.locale.DecreaseKeywords):
		return e.locale.ReasonDecrease
	case containsAny(entry.Notes, e.locale.CorrectionKeywords):
		return e.locale.ReasonAdjustment
	}

	if entry.ActivityType != "" {
		return entry.ActivityType
	}
	return e.locale.ReasonOther
}

func (e *Extractor) firstNumber(text string) (int, bool) {
	match := e.numberRe.FindString(text)
	if match == "" {
		return 0, false
	}
	number, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return number, true
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
