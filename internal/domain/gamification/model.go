// Package gamification keeps a points ledger over platform activities and
// derives badges and a leaderboard from it. Other domains credit points
// through the Award entry point; they never touch the ledger directly.
package gamification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownActivity = errors.New("unknown activity")
)

// activityPoints maps each creditable activity to its point value.
var activityPoints = map[string]int{
	"registration":     10,
	"appointment_kept": 20,
	"consent_granted":  5,
	"camp_attended":    15,
}

// Badge tiers by accumulated points.
const (
	BadgeNone   = ""
	BadgeBronze = "bronze"
	BadgeSilver = "silver"
	BadgeGold   = "gold"
)

// BadgeFor returns the highest badge earned at a point total.
func BadgeFor(points int) string {
	switch {
	case points >= 400:
		return BadgeGold
	case points >= 150:
		return BadgeSilver
	case points >= 50:
		return BadgeBronze
	}
	return BadgeNone
}

// Entry is one credited activity in the ledger.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	ActorID   uuid.UUID `json:"actor_id"`
	Activity  string    `json:"activity"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is one actor's standing.
type Summary struct {
	ActorID    uuid.UUID      `json:"actor_id"`
	Points     int            `json:"points"`
	Badge      string         `json:"badge,omitempty"`
	Activities map[string]int `json:"activities"`
}

// LeaderboardEntry is one row of the points ranking.
type LeaderboardEntry struct {
	Rank    int       `json:"rank"`
	ActorID uuid.UUID `json:"actor_id"`
	Points  int       `json:"points"`
	Badge   string    `json:"badge,omitempty"`
}
