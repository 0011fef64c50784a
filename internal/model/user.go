package model

import "time"

// User is an exam taker provisioned by the external identity system.
// AggregateScore mirrors the final score of the user's most recently graded
// session, overwritten rather than accumulated (last-graded-session-wins).
type User struct {
	ID             int       `json:"id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	AggregateScore int       `json:"aggregate_score"`
	CreatedAt      time.Time `json:"created_at"`
}
