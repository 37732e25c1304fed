package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/util"
)

type fakeIdentityStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*model.User
	logins int
}

func newFakeIdentityStore(users ...*model.User) *fakeIdentityStore {
	f := &fakeIdentityStore{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeIdentityStore) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *u
	return &cp, nil
}

func (f *fakeIdentityStore) SetRefreshFingerprint(_ context.Context, id uuid.UUID, fp *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].RefreshFingerprint = fp
	return nil
}

func (f *fakeIdentityStore) SwapRefreshFingerprint(_ context.Context, id uuid.UUID, old, next string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	if u.RefreshFingerprint == nil || *u.RefreshFingerprint != old {
		return false, nil
	}
	u.RefreshFingerprint = &next
	return true, nil
}

func (f *fakeIdentityStore) RecordLogin(_ context.Context, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	return nil
}

func testUser() *model.User {
	return &model.User{
		ID:       uuid.New(),
		Email:    "somchai@example.com",
		Role:     model.RoleUser,
		IsActive: true,
	}
}

func newTestService(users ...*model.User) (*Service, *fakeIdentityStore) {
	tokens := util.NewTokenManager("a-secret", "r-secret", 15*time.Minute, 7*24*time.Hour)
	store := newFakeIdentityStore(users...)
	return NewService(tokens, store), store
}

func TestLoginStoresFingerprintAndLog(t *testing.T) {
	user := testUser()
	svc, store := newTestService(user)

	pair, err := svc.Login(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	stored := store.users[user.ID].RefreshFingerprint
	require.NotNil(t, stored)
	assert.Equal(t, Fingerprint(pair.RefreshToken), *stored)
	assert.NotContains(t, *stored, pair.RefreshToken)
	assert.Equal(t, 1, store.logins)
}

func TestLoginDeactivated(t *testing.T) {
	user := testUser()
	user.IsActive = false
	svc, _ := newTestService(user)

	_, err := svc.Login(context.Background(), user)
	assert.ErrorIs(t, err, ErrUserDeactivated)
}

func TestRefreshRotates(t *testing.T) {
	user := testUser()
	svc, store := newTestService(user)

	first, err := svc.Login(context.Background(), user)
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, Fingerprint(second.RefreshToken), *store.users[user.ID].RefreshFingerprint)

	// the consumed token is dead
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshPicksUpRoleChange(t *testing.T) {
	user := testUser()
	svc, store := newTestService(user)

	pair, err := svc.Login(context.Background(), user)
	require.NoError(t, err)

	store.mu.Lock()
	store.users[user.ID].Role = model.RoleApprover
	store.mu.Unlock()

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	tokens := util.NewTokenManager("a-secret", "r-secret", 15*time.Minute, 7*24*time.Hour)
	msg, _, err := tokens.CheckAccessToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleApprover, msg.Role)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := testUser()
	svc, _ := newTestService(user)

	pair, err := svc.Login(context.Background(), user)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshExpired(t *testing.T) {
	user := testUser()
	tokens := util.NewTokenManager("a-secret", "r-secret", 15*time.Minute, -time.Minute)
	store := newFakeIdentityStore(user)
	svc := NewService(tokens, store)

	pair, err := svc.Login(context.Background(), user)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshExpired)
}

func TestRefreshAfterLogout(t *testing.T) {
	user := testUser()
	svc, _ := newTestService(user)

	pair, err := svc.Login(context.Background(), user)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), user.ID))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

// Two goroutines race to rotate the same refresh token; the CAS guarantees
// exactly one wins.
func TestRefreshRace(t *testing.T) {
	user := testUser()
	svc, _ := newTestService(user)

	pair, err := svc.Login(context.Background(), user)
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background(), pair.RefreshToken)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrRefreshInvalid)
		}
	}
	assert.Equal(t, 1, wins)
}
