package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Event subjects.
const (
	SubjectDrinkCreated       = "drink.created"
	SubjectDrinkDeleted       = "drink.deleted"
	SubjectDrinkRatingUpdated = "drink.rating_updated"
	SubjectReviewCreated      = "review.created"
	SubjectReviewUpdated      = "review.updated"
	SubjectReviewDeleted      = "review.deleted"
)

// EventPublisher delivers domain events; the NATS publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// publish never fails the calling operation; the write already happened.
func publish(ctx context.Context, pub EventPublisher, log *logger.Logger, subject string, data map[string]interface{}) {
	if err := pub.Publish(ctx, subject, data); err != nil {
		log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func drinkRatingEvent(d *domain.Drink) map[string]interface{} {
	return map[string]interface{}{
		"drink_id":     d.ID.Hex(),
		"rating":       d.Rating,
		"sum":          d.Sum,
		"review_count": d.ReviewCount(),
		"updated_at":   time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type hookedPublisher struct {
	next EventPublisher
	hook func(subject string)
}

// WithEventHook returns a publisher that calls hook for every event, whether
// or not p delivered it. p may be nil.
func WithEventHook(p EventPublisher, hook func(subject string)) EventPublisher {
	return &hookedPublisher{next: publisherOrNoop(p), hook: hook}
}

func (h *hookedPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	err := h.next.Publish(ctx, subject, data)
	h.hook(subject)
	return err
}
