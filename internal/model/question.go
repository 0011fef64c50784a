package model

import "time"

// SeedQuestion is a bank entry used to start an exam session. Only the
// seed prompt is drawn from the bank; follow-ups are AI-generated per
// session.
type SeedQuestion struct {
	ID        int       `json:"id"`
	Prompt    string    `json:"prompt"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
