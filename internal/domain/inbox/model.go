// Package inbox stores per-actor in-app notifications. Delivery fans out in
// three directions: the message is persisted for the actor's inbox, pushed to
// their live feed over the websocket hub, and for selected kinds forwarded by
// e-mail through the notification manager.
package inbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("message not found")

// Message is one stored inbox entry for an actor.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ActorID   uuid.UUID `json:"actor_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
