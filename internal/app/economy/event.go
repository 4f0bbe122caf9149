package economy

import (
	"time"

	"starsky/internal/app/session"
)

// Event types published to sky observers.
const (
	EventActivityUpdate = "activity_update"
	EventNewStar        = "new_star"
)

// StarEvent is the payload observers receive when a star changes.
type StarEvent struct {
	Type          string  `json:"type"`
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Info          string  `json:"info,omitempty"`
	Active        bool    `json:"active"`
	ActivityScore float64 `json:"activity_score"`
	StarColor     string  `json:"star_color"`
	StarShape     string  `json:"star_shape"`
}

// NewStarEvent builds an event of the given type from a session snapshot.
func NewStarEvent(s session.Session, eventType string, now time.Time) StarEvent {
	return StarEvent{
		Type:          eventType,
		ID:            s.UserID,
		Username:      s.Username,
		Active:        s.IsActive(now),
		ActivityScore: s.ActivityScore,
		StarColor:     s.StarColor,
		StarShape:     s.StarShape,
	}
}
