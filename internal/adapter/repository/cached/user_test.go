package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/adapter/cache"
	domain "user-service/internal/domain/user"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, in domain.Input) (*domain.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id string, in domain.Input) (*domain.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setup(t *testing.T) (*UserRepository, *MockRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zaptest.NewLogger(t)
	next := new(MockRepository)
	repo := NewUserRepository(next, cache.NewRedisUserCache(client, time.Minute, log), log)
	return repo, next, mr
}

func TestGetByID_ReadThrough(t *testing.T) {
	repo, next, mr := setup(t)
	ctx := context.Background()

	next.On("GetByID", mock.Anything, "u1").Return(&domain.User{ID: "u1", Name: "Ann", Email: "ann@example.com"}, nil).Once()

	first, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:u1"))

	second, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	next.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetByID_NotFoundIsNotCached(t *testing.T) {
	repo, next, mr := setup(t)
	ctx := context.Background()

	next.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("user:missing"))
}

func TestGetByID_CacheDownFallsBackToStore(t *testing.T) {
	repo, next, mr := setup(t)
	ctx := context.Background()
	mr.Close()

	next.On("GetByID", mock.Anything, "u1").Return(&domain.User{ID: "u1", Name: "Ann"}, nil)

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
}

func TestUpdate_RefreshesCache(t *testing.T) {
	repo, next, mr := setup(t)
	ctx := context.Background()
	in := domain.Input{Name: "Bob", Email: "bob@x.com"}

	next.On("GetByID", mock.Anything, "u1").Return(&domain.User{ID: "u1", Name: "Ann"}, nil).Once()
	next.On("Update", ctx, "u1", in).Return(&domain.User{ID: "u1", Name: "Bob", Email: "bob@x.com"}, nil)

	_, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, mr.Exists("user:u1"))

	updated, err := repo.Update(ctx, "u1", in)
	require.NoError(t, err)
	assert.Equal(t, "Bob", updated.Name)

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)
	next.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetByID_FillDoesNotOverwriteNewerEntry(t *testing.T) {
	repo, next, mr := setup(t)
	ctx := context.Background()

	// An update lands while the store read of the old row is in flight.
	next.On("GetByID", mock.Anything, "u1").Run(func(mock.Arguments) {
		assert.NoError(t, mr.Set("user:u1", `{"ID":"u1","Name":"Bob"}`))
	}).Return(&domain.User{ID: "u1", Name: "Ann"}, nil).Once()

	first, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", first.Name)

	second, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", second.Name)
	next.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetByID_SharedLookupOutlivesCanceledCaller(t *testing.T) {
	repo, next, _ := setup(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var lookupErr error
	next.On("GetByID", mock.Anything, "u1").Run(func(args mock.Arguments) {
		close(started)
		<-release
		lookupErr = args.Get(0).(context.Context).Err()
	}).Return(&domain.User{ID: "u1", Name: "Ann"}, nil).Once()

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := repo.GetByID(firstCtx, "u1")
		firstErr <- err
	}()
	<-started

	type result struct {
		user *domain.User
		err  error
	}
	second := make(chan result, 1)
	go func() {
		u, err := repo.GetByID(context.Background(), "u1")
		second <- result{u, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err, "a live caller must not fail because another caller went away")
	assert.Equal(t, "Ann", res.user.Name)
	assert.NoError(t, lookupErr)
	next.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetByID_CallerDeadlineStillApplies(t *testing.T) {
	repo, next, _ := setup(t)

	release := make(chan struct{})
	next.On("GetByID", mock.Anything, "u1").Run(func(mock.Arguments) {
		<-release
	}).Return(&domain.User{ID: "u1"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Wait for the abandoned lookup before the test's redis and logger go away.
	close(release)
	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestDetach_KeepsDeadlineDropsCancel(t *testing.T) {
	deadline := time.Now().Add(time.Minute)
	parent, cancelParent := context.WithDeadline(context.Background(), deadline)

	ctx, cancel := detach(parent)
	defer cancel()
	cancelParent()

	assert.NoError(t, ctx.Err())
	got, ok := ctx.Deadline()
	require.True(t, ok)
	assert.True(t, got.Equal(deadline))
}

func TestUpdate_ErrorKeepsCache(t *testing.T) {
	repo, next, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("user:u1", `{"ID":"u1","Name":"Ann"}`))
	next.On("Update", ctx, "u1", mock.Anything).Return(nil, errors.New("write failed"))

	_, err := repo.Update(ctx, "u1", domain.Input{Name: "Bob", Email: "bob@x.com"})
	assert.EqualError(t, err, "write failed")
	assert.True(t, mr.Exists("user:u1"))
}

func TestDelete_InvalidatesCache(t *testing.T) {
	repo, next, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("user:u1", `{"ID":"u1","Name":"Ann"}`))
	next.On("Delete", ctx, "u1").Return(nil)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.False(t, mr.Exists("user:u1"))
}

func TestPassThroughOperations(t *testing.T) {
	repo, next, _ := setup(t)
	ctx := context.Background()
	in := domain.Input{Name: "Ann", Email: "ann@example.com"}

	next.On("Create", ctx, in).Return(&domain.User{ID: "u1", Name: "Ann"}, nil)
	next.On("List", ctx).Return([]domain.User{{ID: "u1"}}, nil)
	next.On("Ping", ctx).Return(nil)

	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "u1", created.ID)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	assert.NoError(t, repo.Ping(ctx))
	next.AssertExpectations(t)
}
