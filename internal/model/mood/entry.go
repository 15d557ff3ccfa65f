package mood

import "time"

const (
	MinScore = 1
	MaxScore = 10
	// UntouchedScore is the slider's starting value in the entry form.
	UntouchedScore = 5
)

// Entry is one mood log on a 1-10 scale.
type Entry struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	Mood             int       `json:"mood"`
	Emotions         []string  `json:"emotions"`
	Notes            string    `json:"notes"`
	Triggers         []string  `json:"triggers,omitempty"`
	CopingStrategies []string  `json:"copingStrategies,omitempty"`
	CreatedAt        time.Time `json:"date"`
}

// DayAverage is the mean mood of a calendar day; Mood is 0 when the day has no entries.
type DayAverage struct {
	Day  string  `json:"day"`
	Date string  `json:"date"`
	Mood float64 `json:"mood"`
}

// Stats summarises a user's mood history.
type Stats struct {
	TotalEntries int          `json:"totalEntries"`
	AverageMood  float64      `json:"averageMood"`
	StreakDays   int          `json:"streakDays"`
	Weekly       []DayAverage `json:"weekly"`
}
