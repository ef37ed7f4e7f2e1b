package usecase

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type fixture struct {
	store     *memory.Store
	integrity *IntegrityManager
	users     *UserUsecase
	drinks    *DrinkUsecase
	reviews   *ReviewUsecase
	events    *MockEventPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOver(t, nil)
}

// newFixtureOver routes every usecase through wrap(store) while f.store stays
// the underlying memory store.
func newFixtureOver(t *testing.T, wrap func(domain.DocumentStore) domain.DocumentStore) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore(log)
	var docs domain.DocumentStore = store
	if wrap != nil {
		docs = wrap(store)
	}
	integrity := NewIntegrityManager(docs, log)
	events := new(MockEventPublisher)
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return &fixture{
		store:     store,
		integrity: integrity,
		users:     NewUserUsecase(docs, integrity, log),
		drinks:    NewDrinkUsecase(docs, integrity, events, log),
		reviews:   NewReviewUsecase(docs, integrity, events, log),
		events:    events,
	}
}

// hookStore runs hook once, just before the first UpdateOne that match
// accepts. The hook stands in for a concurrent request landing between two
// steps of an operation.
type hookStore struct {
	domain.DocumentStore
	match func(collection string, filter, update bson.M) bool
	hook  func()
	fired bool
}

func (h *hookStore) UpdateOne(ctx context.Context, collection string, filter, update bson.M) (bson.M, error) {
	if !h.fired && h.match != nil && h.match(collection, filter, update) {
		h.fired = true
		h.hook()
	}
	return h.DocumentStore.UpdateOne(ctx, collection, filter, update)
}

// newHookedFixture returns a fixture whose usecases write through a hookStore.
// Arm the returned store after seeding data.
func newHookedFixture(t *testing.T) (*fixture, *hookStore) {
	t.Helper()
	hs := &hookStore{}
	f := newFixtureOver(t, func(s domain.DocumentStore) domain.DocumentStore {
		hs.DocumentStore = s
		return hs
	})
	return f, hs
}

func (f *fixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), "First", "Last", email, "hash")
	require.NoError(t, err)
	return u
}

func (f *fixture) drink(t *testing.T, email, name string) *domain.Drink {
	t.Helper()
	d, err := f.drinks.CreateDrink(context.Background(), email, name, []domain.Ingredient{{"2 oz", "gin"}})
	require.NoError(t, err)
	return d
}

func (f *fixture) review(t *testing.T, email string, drink *domain.Drink, rating int) *domain.Review {
	t.Helper()
	r, err := f.reviews.CreateReview(context.Background(), email, drink.ID.Hex(), "comment", rating)
	require.NoError(t, err)
	return r
}

func (f *fixture) reloadDrink(t *testing.T, d *domain.Drink) *domain.Drink {
	t.Helper()
	got, err := f.drinks.GetDrink(context.Background(), d.ID.Hex())
	require.NoError(t, err)
	return got
}

func (f *fixture) reloadUser(t *testing.T, email string) *domain.User {
	t.Helper()
	got, err := f.users.GetUser(context.Background(), email)
	require.NoError(t, err)
	return got
}

func nopLogger() *logger.Logger {
	return logger.NewNop()
}
