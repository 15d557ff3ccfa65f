package mood

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mindful/backend/internal/model/mood"
)

const (
	dateLayout   = "2006-01-02"
	weeklyWindow = 7
	// defaultAverage is reported before any entry exists.
	defaultAverage = 5
)

var (
	ErrSessionRequired = errors.New("session id is required")
	ErrInvalidMood     = errors.New("mood must be between 1 and 10")
	ErrIncompleteEntry = errors.New("select your mood level and at least one emotion")
)

// Service keeps mood entries per session in memory.
type Service struct {
	mu      sync.RWMutex
	entries map[string][]mood.Entry
	now     func() time.Time
}

// NewService creates an empty mood log.
func NewService() *Service {
	return &Service{
		entries: make(map[string][]mood.Entry),
		now:     time.Now,
	}
}

// Record validates and stores an entry.
func (s *Service) Record(_ context.Context, entry mood.Entry) (mood.Entry, error) {
	if entry.SessionID == "" {
		return mood.Entry{}, ErrSessionRequired
	}
	if entry.Mood < mood.MinScore || entry.Mood > mood.MaxScore {
		return mood.Entry{}, ErrInvalidMood
	}

	entry.Emotions = cleanList(entry.Emotions)
	entry.Triggers = cleanList(entry.Triggers)
	entry.CopingStrategies = cleanList(entry.CopingStrategies)
	entry.Notes = strings.TrimSpace(entry.Notes)

	// 滑块未移动且未选择情绪，视为未填写。
	if entry.Mood == mood.UntouchedScore && len(entry.Emotions) == 0 {
		return mood.Entry{}, ErrIncompleteEntry
	}

	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	s.entries[entry.SessionID] = append(s.entries[entry.SessionID], entry)
	s.mu.Unlock()

	return entry, nil
}

// List returns a session's entries in recording order.
func (s *Service) List(_ context.Context, sessionID string) []mood.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]mood.Entry(nil), s.entries[sessionID]...)
}

// Stats summarises a session's entries relative to the current day.
func (s *Service) Stats(ctx context.Context, sessionID string) mood.Stats {
	return Summarize(s.List(ctx, sessionID), s.now())
}

// Forget drops every entry of a session.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
}

// Summarize computes the average, the day streak and the trailing week.
// Days are calendar days in now's location.
func Summarize(entries []mood.Entry, now time.Time) mood.Stats {
	stats := mood.Stats{
		TotalEntries: len(entries),
		AverageMood:  defaultAverage,
		StreakDays:   streak(entries, now),
		Weekly:       weekly(entries, now),
	}

	if len(entries) > 0 {
		total := 0
		for _, entry := range entries {
			total += entry.Mood
		}
		stats.AverageMood = roundTenth(float64(total) / float64(len(entries)))
	}
	return stats
}

// streak counts consecutive calendar days, ending today, that have an entry.
func streak(entries []mood.Entry, now time.Time) int {
	days := make(map[int]struct{}, len(entries))
	for _, entry := range entries {
		diff := daysBetween(entry.CreatedAt, now)
		if diff >= 0 {
			days[diff] = struct{}{}
		}
	}

	offsets := make([]int, 0, len(days))
	for d := range days {
		offsets = append(offsets, d)
	}
	sort.Ints(offsets)

	count := 0
	for _, d := range offsets {
		if d != count {
			break
		}
		count++
	}
	return count
}

func weekly(entries []mood.Entry, now time.Time) []mood.DayAverage {
	sums := make(map[int]int)
	counts := make(map[int]int)
	for _, entry := range entries {
		diff := daysBetween(entry.CreatedAt, now)
		if diff < 0 || diff >= weeklyWindow {
			continue
		}
		sums[diff] += entry.Mood
		counts[diff]++
	}

	out := make([]mood.DayAverage, 0, weeklyWindow)
	for diff := weeklyWindow - 1; diff >= 0; diff-- {
		day := startOfDay(now).AddDate(0, 0, -diff)
		avg := 0.0
		if counts[diff] > 0 {
			avg = roundTenth(float64(sums[diff]) / float64(counts[diff]))
		}
		out = append(out, mood.DayAverage{
			Day:  day.Format("Mon"),
			Date: day.Format(dateLayout),
			Mood: avg,
		})
	}
	return out
}

func daysBetween(then, now time.Time) int {
	from := startOfDay(then.In(now.Location()))
	to := startOfDay(now)
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
