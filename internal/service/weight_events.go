package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// WeightChangedSubject carries weight-configuration change events published by
// the course configuration system. Each event obliges this service to rebuild
// the affected gradebook cells.
const WeightChangedSubject = "praxis.weights.changed"

// WeightChangedEvent names the gradebook cells invalidated by a weight edit.
type WeightChangedEvent struct {
	CourseClassID uint   `json:"course_class_id"`
	UserIDs       []uint `json:"user_ids"`
}

// WeightEventSubscriber listens for weight changes and triggers recalculation.
type WeightEventSubscriber struct {
	gradebook GradebookService
	conn      *nats.Conn
	logger    zerolog.Logger
}

// NewWeightEventSubscriber constructs the subscriber. A nil connection
// disables it, which keeps local development without NATS working.
func NewWeightEventSubscriber(gradebook GradebookService, conn *nats.Conn, logger zerolog.Logger) *WeightEventSubscriber {
	return &WeightEventSubscriber{
		gradebook: gradebook,
		conn:      conn,
		logger:    logger.With().Str("component", "weight_event_subscriber").Logger(),
	}
}

// Start subscribes to the weight-changed subject. The returned unsubscribe
// function is safe to call on shutdown.
func (s *WeightEventSubscriber) Start(ctx context.Context) (func(), error) {
	if s.conn == nil {
		s.logger.Info().Msg("nats connection absent, weight event subscription disabled")
		return func() {}, nil
	}

	subscription, err := s.conn.Subscribe(WeightChangedSubject, func(msg *nats.Msg) {
		s.handle(ctx, msg.Data)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("subject", WeightChangedSubject).Msg("subscribed to weight change events")

	return func() {
		if err := subscription.Unsubscribe(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to unsubscribe from weight change events")
		}
	}, nil
}

func (s *WeightEventSubscriber) handle(ctx context.Context, data []byte) {
	var event WeightChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("malformed weight change event, skipping")
		return
	}

	if event.CourseClassID == 0 || len(event.UserIDs) == 0 {
		s.logger.Warn().Msg("incomplete weight change event, skipping")
		return
	}

	for _, userID := range event.UserIDs {
		if err := s.gradebook.Recalculate(ctx, event.CourseClassID, userID); err != nil {
			s.logger.Warn().Err(err).
				Uint("course_class_id", event.CourseClassID).
				Uint("user_id", userID).
				Msg("weight-triggered recalculation failed")
		}
	}
}
