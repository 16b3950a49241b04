package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"go-chi-calculator/internal/engine"
	"go-chi-calculator/internal/storage"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEntryJSONShape(t *testing.T) {
	e := Entry{
		ID:         1728900000123,
		Timestamp:  time.Date(2026, 10, 14, 9, 30, 0, 123_000_000, time.UTC),
		Expression: "5 + 8",
		Result:     "8",
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"id":1728900000123,"date":"2026-10-14T09:30:00.123Z","calculation":"5 + 8","result":"8"}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}

	var back Entry
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Timestamp.Equal(e.Timestamp) || back.Expression != e.Expression {
		t.Fatalf("unexpected decoded entry %+v", back)
	}
}

func TestRecordAssignsIncreasingIDs(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	log := NewLog(storage.NewMemory(0), WithClock(fixedClock(now)))
	ctx := context.Background()

	first, err := log.Record(ctx, engine.Calculation{Expression: "1 + 2", Result: "2"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	second, err := log.Record(ctx, engine.Calculation{Expression: "2 + 3", Result: "3"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if first.ID != now.UnixMilli() {
		t.Fatalf("expected first id %d, got %d", now.UnixMilli(), first.ID)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected ids to increase, got %d then %d", first.ID, second.ID)
	}
}

func TestAppendThenLoadReproducesLog(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(0)
	clock := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	log := NewLog(store, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	for _, calc := range []engine.Calculation{
		{Expression: "5 + 8", Result: "8"},
		{Expression: "7 × 42", Result: "42"},
		{Expression: "1 ÷ 0.25", Result: "0.25"},
	} {
		if _, err := log.Record(ctx, calc); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	restarted := NewLog(store)
	restarted.Load(ctx)

	if diff := cmp.Diff(log.Entries(), restarted.Entries()); diff != "" {
		t.Fatalf("log differs after reload (-before +after):\n%s", diff)
	}
}

func TestLoadFailsSoft(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "corrupt json", value: "[{"},
		{name: "wrong shape", value: `{"id":1}`},
		{name: "only entry undecodable", value: `[{"id":1,"date":"yesterday","calculation":"1 + 1","result":"1"}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemory(0)
			if err := store.Set(ctx, StorageKey, tc.value); err != nil {
				t.Fatalf("seeding store: %v", err)
			}

			core, logs := observer.New(zapcore.WarnLevel)
			log := NewLog(store, WithLogger(zap.New(core)))
			log.Load(ctx)

			if log.Len() != 0 {
				t.Fatalf("expected empty history, got %d entries", log.Len())
			}
			if logs.Len() != 1 {
				t.Fatalf("expected 1 warning, got %d", logs.Len())
			}
		})
	}
}

func TestLoadSkipsUndecodableEntries(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(0)
	raw := `[
		{"id":1,"date":"2026-10-13T09:00:00.000Z","calculation":"1 + 2","result":"2"},
		{"id":2,"date":"not a date","calculation":"2 + 2","result":"2"},
		{"id":3,"calculation":"3 + 3","result":"3"},
		{"id":4,"date":"2026-10-14T09:00:00.000Z","calculation":"4 + 4","result":"4"}
	]`
	if err := store.Set(ctx, StorageKey, raw); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	log := NewLog(store, WithLogger(zap.New(core)))
	log.Load(ctx)

	var ids []int64
	for _, e := range log.Entries() {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]int64{1, 4}, ids); diff != "" {
		t.Fatalf("unexpected entries kept (-want +got):\n%s", diff)
	}
	if got := logs.FilterMessage("skipping undecodable history entry").Len(); got != 2 {
		t.Fatalf("expected 2 warnings, got %d", got)
	}
}

func TestLoadMissingKeyIsEmpty(t *testing.T) {
	log := NewLog(storage.NewMemory(0))
	log.Load(context.Background())
	if log.Len() != 0 {
		t.Fatalf("expected empty history, got %d", log.Len())
	}
}

func TestPersistFailureKeepsEntryInMemory(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.ErrorLevel)
	log := NewLog(storage.NewMemory(40), WithLogger(zap.New(core)))

	entry, err := log.Record(ctx, engine.Calculation{Expression: "123456789 + 123456789", Result: "123456789"})
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if log.Len() != 1 {
		t.Fatalf("expected entry to stay in memory, got %d entries", log.Len())
	}
	if got, err := log.Find(entry.ID); err != nil || got.Result != "123456789" {
		t.Fatalf("Find(%d): %+v, %v", entry.ID, got, err)
	}
	if logs.Len() != 1 || logs.All()[0].Message != "persisting history failed" {
		t.Fatalf("expected a persistence error log, got %+v", logs.All())
	}
}

func TestFindMissing(t *testing.T) {
	log := NewLog(storage.NewMemory(0))
	if _, err := log.Find(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGroupByDayAllToday(t *testing.T) {
	now := time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: 1, Timestamp: now.Add(-3 * time.Hour), Result: "1"},
		{ID: 2, Timestamp: now.Add(-2 * time.Hour), Result: "2"},
		{ID: 3, Timestamp: now.Add(-1 * time.Hour), Result: "3"},
	}

	groups := GroupByDay(entries, now, time.UTC)

	want := []DayGroup{{Label: LabelToday, Entries: entries}}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Fatalf("unexpected groups (-want +got):\n%s", diff)
	}
}

func TestGroupByDayKeepsFirstSeenOrder(t *testing.T) {
	now := time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)
	older := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	entries := []Entry{
		{ID: 1, Timestamp: now},
		{ID: 2, Timestamp: older},
		{ID: 3, Timestamp: yesterday},
		{ID: 4, Timestamp: older.Add(time.Hour)},
		{ID: 5, Timestamp: now.Add(time.Minute)},
	}

	groups := GroupByDay(entries, now, time.UTC)

	var labels []string
	var ids [][]int64
	for _, g := range groups {
		labels = append(labels, g.Label)
		var groupIDs []int64
		for _, e := range g.Entries {
			groupIDs = append(groupIDs, e.ID)
		}
		ids = append(ids, groupIDs)
	}

	if diff := cmp.Diff([]string{"Today", "March 5, 2026", "Yesterday"}, labels); diff != "" {
		t.Fatalf("unexpected labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int64{{1, 5}, {2, 4}, {3}}, ids); diff != "" {
		t.Fatalf("unexpected grouping (-want +got):\n%s", diff)
	}
}

func TestDayLabelUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, loc)
	// 02:00 UTC on the 14th is still the 13th five hours west.
	ts := time.Date(2026, 10, 14, 2, 0, 0, 0, time.UTC)

	if got := DayLabel(ts, now, loc); got != LabelYesterday {
		t.Fatalf("expected %q, got %q", LabelYesterday, got)
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 10, 14, 15, 7, 0, 0, time.UTC)
	if got := FormatTime(ts, time.UTC); got != "03:07 PM" {
		t.Fatalf("expected %q, got %q", "03:07 PM", got)
	}
}
