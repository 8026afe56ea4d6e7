package models

import "time"

// Thought is an audit record appended for a user, keyed by username.
type Thought struct {
	ID        string
	Username  string
	Thought   string
	CreatedAt time.Time
}
