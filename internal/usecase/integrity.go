package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/rating"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// IntegrityManager keeps the references between users, drinks and reviews
// consistent using only single-document atomic updates. Every step is safe to
// replay: the rating sum moves in the same guarded update that changes the
// review set, so a repeated attach or detach matches nothing.
//
// Steps always touch the referenced entity (drink) before the referencing
// user.
type IntegrityManager struct {
	store  domain.DocumentStore
	logger *logger.Logger
}

func NewIntegrityManager(store domain.DocumentStore, log *logger.Logger) *IntegrityManager {
	return &IntegrityManager{
		store:  store,
		logger: log.Named("IntegrityManager"),
	}
}

// AttachReview links reviewID to its drink and author and folds rating into
// the drink's aggregate. It returns the drink as of the rating refresh.
func (m *IntegrityManager) AttachReview(ctx context.Context, drinkID, reviewID primitive.ObjectID, authorEmail string, r int) (*domain.Drink, error) {
	log := m.logger.With(zap.String("drink_id", drinkID.Hex()), zap.String("review_id", reviewID.Hex()))
	log.Debug("Attaching review", zap.Int("rating", r))

	doc, err := m.store.UpdateOne(ctx, domain.DrinksCollection,
		bson.M{codec.FieldID: drinkID, codec.FieldReviewIDs: bson.M{"$ne": reviewID}},
		bson.M{
			"$addToSet": bson.M{codec.FieldReviewIDs: reviewID},
			"$inc":      bson.M{codec.FieldSum: r},
		})
	if err != nil {
		return nil, fmt.Errorf("attach review to drink: %w", err)
	}
	if doc == nil {
		if doc, err = m.findDrinkDoc(ctx, drinkID); err != nil {
			return nil, err
		}
		if doc == nil {
			log.Error("Integrity fault: drink missing while attaching review")
			return nil, domain.ErrDrinkNotFound
		}
		log.Debug("Review already attached to drink")
	}

	drink, err := m.refreshRating(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := m.addToUser(ctx, authorEmail, codec.FieldReviewIDs, reviewID); err != nil {
		log.Error("Integrity fault: author missing while attaching review", zap.String("author", authorEmail), zap.Error(err))
		return drink, err
	}
	return drink, nil
}

// DetachReview is the inverse of AttachReview.
func (m *IntegrityManager) DetachReview(ctx context.Context, drinkID, reviewID primitive.ObjectID, authorEmail string, r int) (*domain.Drink, error) {
	drink, err := m.detachFromDrink(ctx, drinkID, reviewID, r)
	if err != nil {
		return nil, err
	}
	if err := m.pullFromUser(ctx, authorEmail, codec.FieldReviewIDs, reviewID); err != nil {
		m.logger.Error("Integrity fault: author missing while detaching review",
			zap.String("author", authorEmail), zap.String("review_id", reviewID.Hex()), zap.Error(err))
		return drink, err
	}
	return drink, nil
}

func (m *IntegrityManager) detachFromDrink(ctx context.Context, drinkID, reviewID primitive.ObjectID, r int) (*domain.Drink, error) {
	log := m.logger.With(zap.String("drink_id", drinkID.Hex()), zap.String("review_id", reviewID.Hex()))
	log.Debug("Detaching review", zap.Int("rating", r))

	doc, err := m.store.UpdateOne(ctx, domain.DrinksCollection,
		bson.M{codec.FieldID: drinkID, codec.FieldReviewIDs: reviewID},
		bson.M{
			"$pull": bson.M{codec.FieldReviewIDs: reviewID},
			"$inc":  bson.M{codec.FieldSum: -r},
		})
	if err != nil {
		return nil, fmt.Errorf("detach review from drink: %w", err)
	}
	if doc == nil {
		if doc, err = m.findDrinkDoc(ctx, drinkID); err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, domain.ErrDrinkNotFound
		}
		log.Debug("Review already detached from drink")
	}
	return m.refreshRating(ctx, doc)
}

// ApplyRatingDelta moves the drink's sum by delta for a review whose rating
// changed, then refreshes the displayed rating. The delta lands even when the
// drink does not reference the review at the moment: a concurrent delete has
// already subtracted the new rating, and a pending attach will add the old one.
func (m *IntegrityManager) ApplyRatingDelta(ctx context.Context, drinkID, reviewID primitive.ObjectID, delta int) (*domain.Drink, error) {
	log := m.logger.With(zap.String("drink_id", drinkID.Hex()), zap.String("review_id", reviewID.Hex()))

	doc, err := m.store.UpdateOne(ctx, domain.DrinksCollection,
		bson.M{codec.FieldID: drinkID, codec.FieldReviewIDs: reviewID},
		bson.M{"$inc": bson.M{codec.FieldSum: delta}})
	if err != nil {
		return nil, fmt.Errorf("apply rating delta: %w", err)
	}
	if doc == nil {
		doc, err = m.store.UpdateOne(ctx, domain.DrinksCollection,
			bson.M{codec.FieldID: drinkID},
			bson.M{"$inc": bson.M{codec.FieldSum: delta}})
		if err != nil {
			return nil, fmt.Errorf("apply rating delta: %w", err)
		}
		if doc == nil {
			return nil, domain.ErrDrinkNotFound
		}
		log.Info("Rating delta applied while review is detached from drink", zap.Int("delta", delta))
	}
	return m.refreshRating(ctx, doc)
}

// refreshRating re-derives the rating from a drink post-image and writes it
// only if the drink still has the observed sum and review count. A failed
// guard means a later writer changed the aggregate and will refresh it.
func (m *IntegrityManager) refreshRating(ctx context.Context, doc bson.M) (*domain.Drink, error) {
	drink, err := codec.DrinkFromDocument(doc)
	if err != nil {
		return nil, err
	}
	want := rating.Average(drink.Sum, drink.ReviewCount())
	if want == drink.Rating {
		return drink, nil
	}

	updated, err := m.store.UpdateOne(ctx, domain.DrinksCollection,
		bson.M{
			codec.FieldID:        drink.ID,
			codec.FieldSum:       drink.Sum,
			codec.FieldReviewIDs: bson.M{"$size": drink.ReviewCount()},
		},
		bson.M{"$set": bson.M{codec.FieldRating: want}})
	if err != nil {
		return nil, fmt.Errorf("refresh drink rating: %w", err)
	}
	if updated == nil {
		m.logger.Debug("Rating refresh superseded by a newer write", zap.String("drink_id", drink.ID.Hex()))
		drink.Rating = want
		return drink, nil
	}
	return codec.DrinkFromDocument(updated)
}

// AttachItem adds id to the user's set for kind and returns the updated user.
func (m *IntegrityManager) AttachItem(ctx context.Context, kind domain.ReferenceKind, email string, id primitive.ObjectID) (*domain.User, error) {
	field, err := codec.UserReferenceField(kind)
	if err != nil {
		return nil, err
	}
	if id.IsZero() {
		return nil, domain.ErrInvalidIdentifier
	}
	doc, err := m.store.UpdateOne(ctx, domain.UsersCollection,
		bson.M{codec.FieldEmail: email},
		bson.M{"$addToSet": bson.M{field: id}})
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", kind, err)
	}
	if doc == nil {
		return nil, domain.ErrUserNotFound
	}
	return codec.UserFromDocument(doc)
}

// DetachItem removes id from the user's set for kind and reports whether it
// was present.
func (m *IntegrityManager) DetachItem(ctx context.Context, kind domain.ReferenceKind, email string, id primitive.ObjectID) (bool, error) {
	field, err := codec.UserReferenceField(kind)
	if err != nil {
		return false, err
	}
	if id.IsZero() {
		return false, domain.ErrInvalidIdentifier
	}
	doc, err := m.store.UpdateOne(ctx, domain.UsersCollection,
		bson.M{codec.FieldEmail: email, field: id},
		bson.M{"$pull": bson.M{field: id}})
	if err != nil {
		return false, fmt.Errorf("detach %s: %w", kind, err)
	}
	if doc != nil {
		return true, nil
	}
	user, err := m.store.FindOne(ctx, domain.UsersCollection, bson.M{codec.FieldEmail: email})
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, domain.ErrUserNotFound
	}
	return false, nil
}

// DeleteDrink removes a drink, unlinks it from its creator, deletes its
// reviews and unlinks those from their authors. Favorites pointing at the
// drink are dropped as well. Returns nil when no drink was removed.
func (m *IntegrityManager) DeleteDrink(ctx context.Context, id primitive.ObjectID) (*domain.Drink, error) {
	doc, err := m.store.DeleteOne(ctx, domain.DrinksCollection, bson.M{codec.FieldID: id})
	if err != nil {
		return nil, fmt.Errorf("delete drink: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	drink, err := codec.DrinkFromDocument(doc)
	if err != nil {
		return nil, err
	}
	log := m.logger.With(zap.String("drink_id", id.Hex()))

	if _, err := m.DetachItem(ctx, domain.KindDrink, drink.CreatorEmail, id); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return drink, err
		}
		// users are deleted without cascade, so the creator may be gone
		log.Warn("Creator of deleted drink no longer exists", zap.String("creator", drink.CreatorEmail))
	}

	// reviews whose attach never completed still point at the drink
	reviewIDs := domain.NewIDSet(drink.ReviewIDs.Slice()...)
	orphans, err := m.store.Find(ctx, domain.ReviewsCollection, bson.M{codec.FieldDrinkID: id})
	if err != nil {
		return drink, fmt.Errorf("find reviews of deleted drink: %w", err)
	}
	for _, o := range orphans {
		if rid, ok := codec.ToID(o[codec.FieldID]); ok {
			reviewIDs.Add(rid)
		}
	}

	if len(reviewIDs) > 0 {
		ids := reviewIDs.Slice()
		n, err := m.store.DeleteMany(ctx, domain.ReviewsCollection, bson.M{codec.FieldID: bson.M{"$in": ids}})
		if err != nil {
			return drink, fmt.Errorf("delete reviews of drink: %w", err)
		}
		log.Info("Deleted reviews of drink", zap.Int64("count", n))

		if err := m.pullFromAllUsers(ctx, codec.FieldReviewIDs, ids); err != nil {
			return drink, err
		}
	}

	if err := m.pullFromAllUsers(ctx, codec.FieldFavoriteIDs, []primitive.ObjectID{id}); err != nil {
		return drink, err
	}
	return drink, nil
}

// DeleteReview removes a review and detaches it from its drink and author.
// A drink that disappeared concurrently is tolerated. Returns nil when no
// review was removed, otherwise the removed review and the drink after the
// detach (nil if the drink is gone).
func (m *IntegrityManager) DeleteReview(ctx context.Context, id primitive.ObjectID) (*domain.Review, *domain.Drink, error) {
	doc, err := m.store.DeleteOne(ctx, domain.ReviewsCollection, bson.M{codec.FieldID: id})
	if err != nil {
		return nil, nil, fmt.Errorf("delete review: %w", err)
	}
	if doc == nil {
		return nil, nil, nil
	}
	review, err := codec.ReviewFromDocument(doc)
	if err != nil {
		return nil, nil, err
	}

	drink, err := m.detachFromDrink(ctx, review.DrinkID, review.ID, review.Rating)
	if err != nil {
		if !errors.Is(err, domain.ErrDrinkNotFound) {
			return review, nil, err
		}
		m.logger.Warn("Drink of deleted review is gone", zap.String("review_id", id.Hex()), zap.String("drink_id", review.DrinkID.Hex()))
	}

	if err := m.pullFromUser(ctx, review.AuthorEmail, codec.FieldReviewIDs, review.ID); err != nil {
		m.logger.Error("Integrity fault: author missing while deleting review",
			zap.String("author", review.AuthorEmail), zap.String("review_id", id.Hex()), zap.Error(err))
		return review, drink, err
	}
	return review, drink, nil
}

func (m *IntegrityManager) findDrinkDoc(ctx context.Context, id primitive.ObjectID) (bson.M, error) {
	doc, err := m.store.FindOne(ctx, domain.DrinksCollection, bson.M{codec.FieldID: id})
	if err != nil {
		return nil, fmt.Errorf("find drink: %w", err)
	}
	return doc, nil
}

func (m *IntegrityManager) addToUser(ctx context.Context, email, field string, id primitive.ObjectID) error {
	doc, err := m.store.UpdateOne(ctx, domain.UsersCollection,
		bson.M{codec.FieldEmail: email},
		bson.M{"$addToSet": bson.M{field: id}})
	if err != nil {
		return fmt.Errorf("update user %s: %w", field, err)
	}
	if doc == nil {
		return domain.ErrUserNotFound
	}
	return nil
}

// pullFromUser is idempotent: an id that is already absent is not an error,
// only a missing user is.
func (m *IntegrityManager) pullFromUser(ctx context.Context, email, field string, id primitive.ObjectID) error {
	doc, err := m.store.UpdateOne(ctx, domain.UsersCollection,
		bson.M{codec.FieldEmail: email},
		bson.M{"$pull": bson.M{field: id}})
	if err != nil {
		return fmt.Errorf("update user %s: %w", field, err)
	}
	if doc == nil {
		return domain.ErrUserNotFound
	}
	return nil
}

func (m *IntegrityManager) pullFromAllUsers(ctx context.Context, field string, ids []primitive.ObjectID) error {
	holders, err := m.store.Find(ctx, domain.UsersCollection, bson.M{field: bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("find users referencing %s: %w", field, err)
	}
	for _, h := range holders {
		if _, err := m.store.UpdateOne(ctx, domain.UsersCollection,
			bson.M{codec.FieldID: h[codec.FieldID]},
			bson.M{"$pullAll": bson.M{field: ids}}); err != nil {
			return fmt.Errorf("pull %s from user: %w", field, err)
		}
	}
	return nil
}
