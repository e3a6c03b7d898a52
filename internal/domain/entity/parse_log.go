package entity

import "time"

// ParseLog is one row of the parse history: what was requested and how it ended.
type ParseLog struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Source     Source    `json:"source"`
	Version    string    `json:"version"`
	ItemCount  int       `json:"item_count"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Failed reports whether the parse ended with an error.
func (l *ParseLog) Failed() bool {
	return l.Error != ""
}
