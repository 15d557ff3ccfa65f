package chat

import "time"

// Session captures one user's conversation with a companion persona.
// UserName is empty when the user prefers to stay anonymous.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	UserName  string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
