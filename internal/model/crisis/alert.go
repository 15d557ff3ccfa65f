package crisis

import "time"

// Alert records that a user message was classified as crisis.
type Alert struct {
	SessionID  string    `json:"sessionId"`
	MessageID  string    `json:"messageId,omitempty"`
	Text       string    `json:"text"`
	DetectedAt time.Time `json:"detectedAt"`
}
