package yield

import (
	"reflect"
	"testing"
	"time"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2026, 4, dayOfMonth, 8, 0, 0, 0, time.UTC)
}

func yieldLog(date time.Time, activityType, notes string) farm.TreeLog {
	return farm.TreeLog{LogDate: date, ActivityType: activityType, Notes: notes}
}

func TestParseExplicitBeforeAfterTemplate(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), farm.ActivityYieldUpdate, "ปรับปรุงจำนวนผล: จาก 10 ลูก เป็น 15 ลูก (+5)"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}
	event := events[0]
	if event.PreviousYield != 10 || event.NewYield != 15 || event.Change != 5 {
		t.Fatalf("parsed {prev=%d new=%d change=%d}, expected {10 15 5}",
			event.PreviousYield, event.NewYield, event.Change)
	}
	if event.Reason != "ปรับปรุงจำนวนผล" {
		t.Fatalf("reason = %q, expected colon prefix", event.Reason)
	}
}

func TestExplicitTemplateDeltaIsTrustedAsWritten(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), farm.ActivityYieldUpdate, "จาก 10 ลูก เป็น 15 ลูก (-999)"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}
	if events[0].Change != -999 {
		t.Fatalf("change = %d, expected the stated -999 over the arithmetic difference", events[0].Change)
	}
	if events[0].PreviousYield != 10 || events[0].NewYield != 15 {
		t.Fatalf("before/after = %d/%d, expected 10/15", events[0].PreviousYield, events[0].NewYield)
	}
}

func TestHarvestQuantityBecomesNegativeDelta(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(2), farm.ActivityHarvest, "เก็บเกี่ยว 20 ลูก"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}
	event := events[0]
	if event.Change != -20 {
		t.Fatalf("change = %d, expected -20", event.Change)
	}
	if event.PreviousYield != 0 || event.NewYield != 0 {
		t.Fatalf("harvest event carries absolute levels %d/%d, expected 0/0",
			event.PreviousYield, event.NewYield)
	}
	if event.Reason != "harvest" {
		t.Fatalf("reason = %q, expected harvest", event.Reason)
	}
}

func TestKeywordFallbackDirections(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), "", "ผลเพิ่มขึ้น 7 หลังใส่ปุ๋ย"),
		yieldLog(day(2), "", "ลูกร่วง 3 เพราะลมแรง"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 2 {
		t.Fatalf("got %d events, expected 2", len(events))
	}
	if events[0].Change != 7 {
		t.Fatalf("increase change = %d, expected 7", events[0].Change)
	}
	if events[0].Reason != "increase fruit" {
		t.Fatalf("increase reason = %q", events[0].Reason)
	}
	if events[1].Change != -3 {
		t.Fatalf("decrease change = %d, expected -3", events[1].Change)
	}
	if events[1].Reason != "decrease fruit" {
		t.Fatalf("decrease reason = %q", events[1].Reason)
	}
}

func TestNonCandidateLogsAreSkipped(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), "watering", "รดน้ำ 20 ลิตร"),
		yieldLog(day(2), "fertilizing", "ใส่ปุ๋ย 15-15-15"),
	}

	if events := extractor.ParseYieldEvents(logs); len(events) != 0 {
		t.Fatalf("got %d events from non-yield logs, expected none", len(events))
	}
}

func TestCandidateWithoutPatternIsSilentlySkipped(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), farm.ActivityYieldUpdate, "สังเกตผลโดยรวมสมบูรณ์ดี"),
	}

	if events := extractor.ParseYieldEvents(logs); len(events) != 0 {
		t.Fatalf("got %d events from unmatched candidate, expected none", len(events))
	}
}

func TestEventsSortedAscendingByDate(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(9), farm.ActivityHarvest, "เก็บเกี่ยว 4 ลูก"),
		yieldLog(day(1), farm.ActivityYieldUpdate, "จาก 0 ลูก เป็น 12 ลูก (+12)"),
		yieldLog(day(5), farm.ActivityYieldUpdate, "จาก 12 ลูก เป็น 10 ลูก (-2)"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 3 {
		t.Fatalf("got %d events, expected 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Date.Before(events[i-1].Date) {
			t.Fatalf("events out of order at index %d: %v before %v",
				i, events[i].Date, events[i-1].Date)
		}
	}
}

func TestParseYieldEventsIsDeterministic(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(3), farm.ActivityHarvest, "เก็บเกี่ยว 8 ลูก"),
		yieldLog(day(1), farm.ActivityYieldUpdate, "จาก 2 ลูก เป็น 10 ลูก (+8)"),
		yieldLog(day(2), "", "ลูกร่วง 1"),
	}

	first := extractor.ParseYieldEvents(logs)
	second := extractor.ParseYieldEvents(logs)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated extraction diverged:\n%v\n%v", first, second)
	}
}

func TestHarvestReasonWinsOverSharedKeyword(t *testing.T) {
	// "เก็บ" appears in both harvest and decrease vocabularies; harvest
	// labeling takes precedence.
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), "", "เก็บผลไป 6 ลูก"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}
	if events[0].Reason != "harvest" {
		t.Fatalf("reason = %q, expected harvest", events[0].Reason)
	}
	if events[0].Change != -6 {
		t.Fatalf("change = %d, expected -6", events[0].Change)
	}
}

func TestActivityTypeUsedAsReasonFallback(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), farm.ActivityYieldUpdate, "จาก 5 ลูก เป็น 8 ลูก (+3)"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}
	if events[0].Change != 3 {
		t.Fatalf("change = %d, expected 3", events[0].Change)
	}
	if events[0].Reason != farm.ActivityYieldUpdate {
		t.Fatalf("reason = %q, expected activity type fallback", events[0].Reason)
	}
}

func TestAdjustFruitCountNoteRoundTrips(t *testing.T) {
	extractor := NewExtractor(DefaultThaiLocale())
	logs := []farm.TreeLog{
		yieldLog(day(1), farm.ActivityYieldUpdate, "ปรับปรุงจำนวนผล: จาก 15 ลูก เป็น 10 ลูก (-5)"),
	}

	events := extractor.ParseYieldEvents(logs)
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}
	event := events[0]
	if event.PreviousYield != 15 || event.NewYield != 10 || event.Change != -5 {
		t.Fatalf("round trip parsed {%d %d %d}, expected {15 10 -5}",
			event.PreviousYield, event.NewYield, event.Change)
	}
}

func TestCustomLocaleOverridesVocabulary(t *testing.T) {
	locale := DefaultThaiLocale()
	locale.FruitUnit = "fruits"
	locale.FromWord = "from"
	locale.ToWord = "to"
	locale.CandidateKeywords = []string{"fruits"}
	extractor := NewExtractor(locale)

	logs := []farm.TreeLog{
		yieldLog(day(1), "", "count moved from 4 fruits to 9 fruits (+5)"),
	}
	events := extractor.ParseYieldEvents(logs)
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}
	if events[0].PreviousYield != 4 || events[0].NewYield != 9 || events[0].Change != 5 {
		t.Fatalf("parsed {%d %d %d}, expected {4 9 5}",
			events[0].PreviousYield, events[0].NewYield, events[0].Change)
	}
}
