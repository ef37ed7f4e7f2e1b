package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxRatingCASAttempts bounds the compare-and-set loop of a rating change.
const maxRatingCASAttempts = 3

// ReviewUsecase is the review half of the repository facade.
type ReviewUsecase struct {
	store     domain.DocumentStore
	integrity *IntegrityManager
	events    EventPublisher
	logger    *logger.Logger
}

func NewReviewUsecase(store domain.DocumentStore, integrity *IntegrityManager, events EventPublisher, log *logger.Logger) *ReviewUsecase {
	return &ReviewUsecase{
		store:     store,
		integrity: integrity,
		events:    publisherOrNoop(events),
		logger:    log.Named("ReviewUsecase"),
	}
}

// GetReview returns nil when the review does not exist.
func (uc *ReviewUsecase) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	return uc.getReview(ctx, oid)
}

func (uc *ReviewUsecase) getReview(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	doc, err := uc.store.FindOne(ctx, domain.ReviewsCollection, bson.M{codec.FieldID: id})
	if err != nil {
		uc.logger.Error("Failed to get review", zap.String("review_id", id.Hex()), zap.Error(err))
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return codec.ReviewFromDocument(doc)
}

// GetReviews returns one slot per id, nil for absent reviews.
func (uc *ReviewUsecase) GetReviews(ctx context.Context, ids []string) ([]*domain.Review, error) {
	oids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Review, len(oids))
	if len(oids) == 0 {
		return out, nil
	}
	docs, err := uc.store.Find(ctx, domain.ReviewsCollection, bson.M{codec.FieldID: bson.M{"$in": oids}})
	if err != nil {
		uc.logger.Error("Failed to get reviews", zap.Strings("review_ids", ids), zap.Error(err))
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*domain.Review, len(docs))
	for _, doc := range docs {
		r, err := codec.ReviewFromDocument(doc)
		if err != nil {
			return nil, err
		}
		byID[r.ID] = r
	}
	for i, oid := range oids {
		out[i] = byID[oid]
	}
	return out, nil
}

// CreateReview is idempotent on (author, drink). The drink and author must
// exist; the new review is attached to both and folded into the drink rating.
func (uc *ReviewUsecase) CreateReview(ctx context.Context, email, drinkID, comment string, r int) (*domain.Review, error) {
	uc.logger.Info("Creating review", zap.String("user_email", email), zap.String("drink_id", drinkID), zap.Int("rating", r))

	did, err := domain.ParseID(drinkID)
	if err != nil {
		return nil, err
	}
	review, err := domain.NewReview(email, did, comment, r)
	if err != nil {
		return nil, err
	}

	existing, err := uc.findByKey(ctx, email, did)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// attach is replay-safe and repairs a create that stopped half way
		if _, err := uc.integrity.AttachReview(ctx, did, existing.ID, email, existing.Rating); err != nil {
			return nil, err
		}
		return existing, nil
	}

	drink, err := uc.store.FindOne(ctx, domain.DrinksCollection, bson.M{codec.FieldID: did})
	if err != nil {
		return nil, err
	}
	if drink == nil {
		return nil, domain.ErrDrinkNotFound
	}
	author, err := uc.store.FindOne(ctx, domain.UsersCollection, bson.M{codec.FieldEmail: email})
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, domain.ErrUserNotFound
	}

	id, err := uc.store.InsertOne(ctx, domain.ReviewsCollection, codec.ReviewToDocument(review))
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return uc.findByKey(ctx, email, did)
		}
		uc.logger.Error("Failed to insert review", zap.Error(err))
		return nil, fmt.Errorf("create review: %w", err)
	}
	review.ID = id

	updated, err := uc.integrity.AttachReview(ctx, did, id, email, r)
	if err != nil {
		if errors.Is(err, domain.ErrDrinkNotFound) {
			// drink deleted between the check and the attach
			if _, delErr := uc.store.DeleteOne(ctx, domain.ReviewsCollection, bson.M{codec.FieldID: id}); delErr != nil {
				uc.logger.Error("Rollback of review insert failed", zap.String("review_id", id.Hex()), zap.Error(delErr))
			}
		}
		return nil, err
	}

	publish(ctx, uc.events, uc.logger, SubjectReviewCreated, map[string]interface{}{
		"review_id":  id.Hex(),
		"drink_id":   drinkID,
		"user_email": email,
		"rating":     r,
		"created_at": review.CreatedAt.Format(time.RFC3339Nano),
	})
	publish(ctx, uc.events, uc.logger, SubjectDrinkRatingUpdated, drinkRatingEvent(updated))
	uc.logger.Info("Review created", zap.String("review_id", id.Hex()), zap.Float64("drink_rating", updated.Rating))
	return review, nil
}

func (uc *ReviewUsecase) findByKey(ctx context.Context, email string, drinkID primitive.ObjectID) (*domain.Review, error) {
	doc, err := uc.store.FindOne(ctx, domain.ReviewsCollection, bson.M{codec.FieldUserEmail: email, codec.FieldDrinkID: drinkID})
	if err != nil || doc == nil {
		return nil, err
	}
	return codec.ReviewFromDocument(doc)
}

// UpdateReview sets comment or rating. A rating change is a compare-and-set on
// the review followed by a delta on the drink aggregate. Returns nil when the
// review does not exist or fields is empty.
func (uc *ReviewUsecase) UpdateReview(ctx context.Context, id string, fields map[string]interface{}) (*domain.Review, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	set, err := sanitizeFields(reviewFieldRules, fields)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, nil
	}

	newRating, ratingChange := set[codec.FieldRating].(int)
	if !ratingChange {
		doc, err := uc.store.UpdateOne(ctx, domain.ReviewsCollection, bson.M{codec.FieldID: oid}, bson.M{"$set": set})
		if err != nil || doc == nil {
			return nil, err
		}
		updated, err := codec.ReviewFromDocument(doc)
		if err != nil {
			return nil, err
		}
		uc.publishUpdated(ctx, updated, 0)
		return updated, nil
	}

	for attempt := 0; attempt < maxRatingCASAttempts; attempt++ {
		current, err := uc.getReview(ctx, oid)
		if err != nil || current == nil {
			return nil, err
		}
		old := current.Rating

		doc, err := uc.store.UpdateOne(ctx, domain.ReviewsCollection,
			bson.M{codec.FieldID: oid, codec.FieldRating: old},
			bson.M{"$set": set})
		if err != nil {
			return nil, err
		}
		if doc == nil {
			uc.logger.Debug("Review rating changed concurrently, retrying", zap.String("review_id", id), zap.Int("attempt", attempt+1))
			continue
		}
		updated, err := codec.ReviewFromDocument(doc)
		if err != nil {
			return nil, err
		}

		delta := newRating - old
		if delta != 0 {
			drink, err := uc.integrity.ApplyRatingDelta(ctx, updated.DrinkID, oid, delta)
			switch {
			case errors.Is(err, domain.ErrDrinkNotFound):
				uc.logger.Warn("Drink of updated review is gone", zap.String("review_id", id))
			case err != nil:
				return updated, err
			default:
				publish(ctx, uc.events, uc.logger, SubjectDrinkRatingUpdated, drinkRatingEvent(drink))
			}
		}
		uc.publishUpdated(ctx, updated, delta)
		return updated, nil
	}
	return nil, fmt.Errorf("%w: review %s", domain.ErrConcurrentUpdate, id)
}

func (uc *ReviewUsecase) publishUpdated(ctx context.Context, r *domain.Review, delta int) {
	publish(ctx, uc.events, uc.logger, SubjectReviewUpdated, map[string]interface{}{
		"review_id":    r.ID.Hex(),
		"drink_id":     r.DrinkID.Hex(),
		"user_email":   r.AuthorEmail,
		"rating":       r.Rating,
		"rating_delta": delta,
		"updated_at":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// DeleteReview reports whether a review was removed.
func (uc *ReviewUsecase) DeleteReview(ctx context.Context, id string) (bool, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return false, err
	}
	review, drink, err := uc.integrity.DeleteReview(ctx, oid)
	if err != nil {
		uc.logger.Error("Failed to delete review", zap.String("review_id", id), zap.Error(err))
		return review != nil, err
	}
	if review == nil {
		return false, nil
	}

	publish(ctx, uc.events, uc.logger, SubjectReviewDeleted, map[string]interface{}{
		"review_id":  id,
		"drink_id":   review.DrinkID.Hex(),
		"user_email": review.AuthorEmail,
		"deleted_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if drink != nil {
		publish(ctx, uc.events, uc.logger, SubjectDrinkRatingUpdated, drinkRatingEvent(drink))
	}
	uc.logger.Info("Review deleted", zap.String("review_id", id))
	return true, nil
}

func (uc *ReviewUsecase) SampleReviews(ctx context.Context, n int) ([]*domain.Review, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidSampleSize
	}
	docs, err := uc.store.Sample(ctx, domain.ReviewsCollection, n)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Review, 0, len(docs))
	for _, doc := range docs {
		r, err := codec.ReviewFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
