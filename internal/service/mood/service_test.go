package mood

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zhouzirui/mindful/backend/internal/model/mood"
)

func fixedNow() time.Time {
	return time.Date(2024, time.March, 15, 18, 30, 0, 0, time.UTC)
}

func newTestService() *Service {
	svc := NewService()
	svc.now = fixedNow
	return svc
}

func TestRecordValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		entry mood.Entry
		want  error
	}{
		{mood.Entry{Mood: 7, Emotions: []string{"Calm"}}, ErrSessionRequired},
		{mood.Entry{SessionID: "s", Mood: 0, Emotions: []string{"Sad"}}, ErrInvalidMood},
		{mood.Entry{SessionID: "s", Mood: 11}, ErrInvalidMood},
		{mood.Entry{SessionID: "s", Mood: 5, Emotions: []string{" "}}, ErrIncompleteEntry},
	}

	for _, tc := range cases {
		if _, err := svc.Record(ctx, tc.entry); !errors.Is(err, tc.want) {
			t.Fatalf("Record(%+v) err = %v, want %v", tc.entry, err, tc.want)
		}
	}
}

func TestRecordAcceptsUntouchedScoreWithEmotion(t *testing.T) {
	svc := newTestService()

	saved, err := svc.Record(context.Background(), mood.Entry{
		SessionID: "s",
		Mood:      5,
		Emotions:  []string{"Calm", ""},
		Notes:     "  quiet day ",
	})
	if err != nil {
		t.Fatalf("Record err: %v", err)
	}
	if saved.ID == "" || !saved.CreatedAt.Equal(fixedNow()) {
		t.Fatalf("expected ID and timestamp, got %+v", saved)
	}
	if len(saved.Emotions) != 1 || saved.Notes != "quiet day" {
		t.Fatalf("entry not normalised: %+v", saved)
	}
	if got := svc.List(context.Background(), "s"); len(got) != 1 {
		t.Fatalf("expected one stored entry, got %d", len(got))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, fixedNow())

	if stats.AverageMood != 5 || stats.StreakDays != 0 || stats.TotalEntries != 0 {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}
	if len(stats.Weekly) != 7 {
		t.Fatalf("expected 7 weekly points, got %d", len(stats.Weekly))
	}
	if stats.Weekly[6].Date != "2024-03-15" || stats.Weekly[0].Date != "2024-03-09" {
		t.Fatalf("unexpected weekly window: %+v", stats.Weekly)
	}
}

func TestSummarizeAverageAndWeekly(t *testing.T) {
	now := fixedNow()
	entries := []mood.Entry{
		{Mood: 7, CreatedAt: now.Add(-time.Hour)},
		{Mood: 8, CreatedAt: now.Add(-2 * time.Hour)},
		{Mood: 4, CreatedAt: now.AddDate(0, 0, -2)},
		{Mood: 2, CreatedAt: now.AddDate(0, 0, -30)},
	}

	stats := Summarize(entries, now)

	if stats.AverageMood != 5.3 {
		t.Fatalf("expected average 5.3, got %v", stats.AverageMood)
	}
	if stats.Weekly[6].Mood != 7.5 {
		t.Fatalf("expected today's average 7.5, got %v", stats.Weekly[6].Mood)
	}
	if stats.Weekly[4].Mood != 4 {
		t.Fatalf("expected two-days-ago average 4, got %v", stats.Weekly[4].Mood)
	}
	if stats.Weekly[5].Mood != 0 {
		t.Fatalf("expected empty yesterday, got %v", stats.Weekly[5].Mood)
	}
	if stats.Weekly[6].Day != "Fri" {
		t.Fatalf("unexpected weekday label: %s", stats.Weekly[6].Day)
	}
}

func TestStreakCountsConsecutiveDays(t *testing.T) {
	now := fixedNow()
	entries := []mood.Entry{
		{Mood: 6, CreatedAt: now.Add(-time.Hour)},
		{Mood: 6, CreatedAt: now.Add(-3 * time.Hour)},
		{Mood: 6, CreatedAt: now.AddDate(0, 0, -1)},
		{Mood: 6, CreatedAt: now.AddDate(0, 0, -2)},
		{Mood: 6, CreatedAt: now.AddDate(0, 0, -4)},
	}

	if got := Summarize(entries, now).StreakDays; got != 3 {
		t.Fatalf("expected streak 3, got %d", got)
	}
}

func TestStreakRequiresEntryToday(t *testing.T) {
	now := fixedNow()
	entries := []mood.Entry{{Mood: 6, CreatedAt: now.AddDate(0, 0, -1)}}

	if got := Summarize(entries, now).StreakDays; got != 0 {
		t.Fatalf("expected streak 0, got %d", got)
	}
}

func TestForget(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Record(ctx, mood.Entry{SessionID: "s", Mood: 8}); err != nil {
		t.Fatalf("Record err: %v", err)
	}

	svc.Forget("s")

	if got := svc.Stats(ctx, "s"); got.TotalEntries != 0 {
		t.Fatalf("expected no entries after Forget, got %d", got.TotalEntries)
	}
}
