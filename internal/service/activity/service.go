package activity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mindful/backend/internal/model/activity"
)

const (
	moodTarget        = 30
	exerciseTarget    = 10
	mindfulnessTarget = 15

	weekStreakDays          = 7
	mindfulMinutesMilestone = 100
)

var (
	ErrSessionRequired  = errors.New("session id is required")
	ErrUnknownKind      = errors.New("kind must be cbt or mindfulness")
	ErrUnknownExercise  = errors.New("exercise type does not match the activity kind")
	ErrDurationRequired = errors.New("mindfulness sessions need a positive duration")
)

// Service keeps completed activities per session in memory.
type Service struct {
	mu      sync.RWMutex
	records map[string][]activity.Record
	now     func() time.Time
}

// NewService creates an empty activity log.
func NewService() *Service {
	return &Service{
		records: make(map[string][]activity.Record),
		now:     time.Now,
	}
}

// Record validates and stores a completed activity.
func (s *Service) Record(_ context.Context, rec activity.Record) (activity.Record, error) {
	if rec.SessionID == "" {
		return activity.Record{}, ErrSessionRequired
	}
	if rec.Kind != activity.KindCBT && rec.Kind != activity.KindMindfulness {
		return activity.Record{}, ErrUnknownKind
	}
	rec.Exercise = strings.TrimSpace(rec.Exercise)
	if !activity.ValidExercise(rec.Kind, rec.Exercise) {
		return activity.Record{}, ErrUnknownExercise
	}
	if rec.Kind == activity.KindMindfulness && rec.DurationMinutes <= 0 {
		return activity.Record{}, ErrDurationRequired
	}

	rec.Title = strings.TrimSpace(rec.Title)
	rec.Responses = cleanResponses(rec.Responses)
	rec.ID = uuid.NewString()
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = s.now().UTC()
	}

	s.mu.Lock()
	s.records[rec.SessionID] = append(s.records[rec.SessionID], rec)
	s.mu.Unlock()

	return rec, nil
}

// List returns a session's activities in completion order.
func (s *Service) List(_ context.Context, sessionID string) []activity.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]activity.Record(nil), s.records[sessionID]...)
}

// Totals sums a session's completed activities.
func (s *Service) Totals(ctx context.Context, sessionID string) activity.Totals {
	return Sum(s.List(ctx, sessionID))
}

// Forget drops every activity of the session.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.records, sessionID)
	s.mu.Unlock()
}

// Sum counts exercises and mindfulness minutes.
func Sum(records []activity.Record) activity.Totals {
	var totals activity.Totals
	for _, rec := range records {
		switch rec.Kind {
		case activity.KindCBT:
			totals.ExercisesCompleted++
		case activity.KindMindfulness:
			totals.MindfulnessSessions++
			totals.MindfulMinutes += rec.DurationMinutes
		}
	}
	return totals
}

// Targets reports completion against the progress page goals.
func Targets(moodEntries int, totals activity.Totals) []activity.Target {
	return []activity.Target{
		{Name: "Mood Tracking", Completed: moodEntries, Target: moodTarget},
		{Name: "CBT Exercises", Completed: totals.ExercisesCompleted, Target: exerciseTarget},
		{Name: "Mindfulness", Completed: totals.MindfulnessSessions, Target: mindfulnessTarget},
	}
}

// Achievements derives the milestone list from mood history and activity totals.
func Achievements(moodEntries, streakDays int, totals activity.Totals) []activity.Achievement {
	return []activity.Achievement{
		{
			ID:          "first-mood",
			Title:       "First Mood Entry",
			Description: "Logged your first mood entry",
			Earned:      moodEntries > 0,
		},
		{
			ID:          "week-streak",
			Title:       "Week Warrior",
			Description: "Tracked mood for 7 consecutive days",
			Earned:      streakDays >= weekStreakDays,
		},
		{
			ID:          "cbt-starter",
			Title:       "CBT Explorer",
			Description: "Completed your first CBT exercise",
			Earned:      totals.ExercisesCompleted > 0,
		},
		{
			ID:          "mindful-minutes",
			Title:       "Mindful Moments",
			Description: "Completed 100 minutes of mindfulness",
			Earned:      totals.MindfulMinutes >= mindfulMinutesMilestone,
		},
	}
}

func cleanResponses(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
