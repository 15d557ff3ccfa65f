package activity

import "time"

// Kind groups completed exercises.
type Kind string

const (
	KindCBT         Kind = "cbt"
	KindMindfulness Kind = "mindfulness"
)

// Exercise types per kind, as offered by the client's exercise catalogs.
var exerciseTypes = map[Kind][]string{
	KindCBT:         {"thought-challenge", "behavioral-activation", "exposure", "mindfulness"},
	KindMindfulness: {"breathing", "meditation", "grounding", "progressive-relaxation"},
}

// ValidExercise reports whether exercise is a known type of kind.
func ValidExercise(kind Kind, exercise string) bool {
	for _, candidate := range exerciseTypes[kind] {
		if candidate == exercise {
			return true
		}
	}
	return false
}

// Record is one completed CBT exercise or mindfulness session.
type Record struct {
	ID              string            `json:"id"`
	SessionID       string            `json:"sessionId"`
	Kind            Kind              `json:"kind"`
	Exercise        string            `json:"exercise"`
	Title           string            `json:"title"`
	DurationMinutes int               `json:"durationMinutes"`
	Responses       map[string]string `json:"responses,omitempty"`
	CompletedAt     time.Time         `json:"completedAt"`
}

// Totals counts completed activities.
type Totals struct {
	ExercisesCompleted  int `json:"exercisesCompleted"`
	MindfulnessSessions int `json:"mindfulnessSessions"`
	MindfulMinutes      int `json:"mindfulMinutes"`
}

// Target is a completion goal shown on the progress page.
type Target struct {
	Name      string `json:"name"`
	Completed int    `json:"completed"`
	Target    int    `json:"target"`
}

// Achievement is a milestone; Earned is derived on every read.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}
