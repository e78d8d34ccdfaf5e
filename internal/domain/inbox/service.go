package inbox

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swasthya/swasthya/internal/platform/notification"
	"github.com/swasthya/swasthya/internal/platform/websocket"
)

// Dispatcher forwards a message over an out-of-band channel. Satisfied by
// the notification manager.
type Dispatcher interface {
	Send(ctx context.Context, n *notification.Notification) error
}

// ContactResolver looks up an actor's delivery addresses.
type ContactResolver interface {
	Contact(ctx context.Context, actorID uuid.UUID) (email, mobile string, err error)
}

// emailKinds are the message kinds that also go out by e-mail when the actor
// has an address on file.
var emailKinds = map[string]struct{}{
	"welcome":               {},
	"appointment.booked":    {},
	"appointment.cancelled": {},
	"consent.granted":       {},
}

type Service struct {
	repo       Repository
	events     websocket.EventPublisher
	dispatcher Dispatcher
	contacts   ContactResolver
	logger     zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetEventPublisher attaches the live-feed sink for real-time delivery.
func (s *Service) SetEventPublisher(p websocket.EventPublisher) {
	s.events = p
}

// SetDispatcher attaches the out-of-band channel with the address lookup it
// needs. Both must be set for e-mail forwarding to happen.
func (s *Service) SetDispatcher(d Dispatcher, c ContactResolver) {
	s.dispatcher = d
	s.contacts = c
}

// Notify stores a message in the actor's inbox and fans it out. The store is
// the source of truth; feed and e-mail delivery are best-effort.
func (s *Service) Notify(ctx context.Context, actorID uuid.UUID, kind, title, body string) error {
	m := &Message{ActorID: actorID, Kind: kind, Title: title, Body: body}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}

	s.push(ctx, m)
	if _, ok := emailKinds[kind]; ok {
		s.forward(ctx, m)
	}
	return nil
}

// List returns the caller's messages, newest first.
func (s *Service) List(ctx context.Context, actorID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Message, int, error) {
	return s.repo.ListByActor(ctx, actorID, unreadOnly, limit, offset)
}

// UnreadCount returns how many messages the caller has not read yet.
func (s *Service) UnreadCount(ctx context.Context, actorID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, actorID)
}

// MarkRead flips one of the caller's messages.
func (s *Service) MarkRead(ctx context.Context, actorID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, actorID, id)
}

// MarkAllRead flips every unread message of the caller.
func (s *Service) MarkAllRead(ctx context.Context, actorID uuid.UUID) (int, error) {
	return s.repo.MarkAllRead(ctx, actorID)
}

// push publishes the message on the actor's feed topic.
func (s *Service) push(ctx context.Context, m *Message) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		s.logger.Warn().Err(err).Msg("inbox payload marshal failed")
		return
	}
	ev := websocket.Event{
		Kind:    m.Kind,
		Topic:   websocket.ActorTopic(m.ActorID),
		ActorID: m.ActorID.String(),
		Title:   m.Title,
		Data:    data,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str("actor_id", m.ActorID.String()).
			Msg("inbox feed publish failed")
	}
}

// forward sends the message by e-mail when the actor has an address.
func (s *Service) forward(ctx context.Context, m *Message) {
	if s.dispatcher == nil || s.contacts == nil {
		return
	}
	email, _, err := s.contacts.Contact(ctx, m.ActorID)
	if err != nil || email == "" {
		return
	}
	n := &notification.Notification{
		Channel:   notification.ChannelEmail,
		Recipient: email,
		Subject:   m.Title,
		Body:      m.Body,
	}
	if err := s.dispatcher.Send(ctx, n); err != nil {
		s.logger.Warn().Err(err).
			Str("actor_id", m.ActorID.String()).
			Str("kind", m.Kind).
			Msg("inbox e-mail forward failed")
	}
}
