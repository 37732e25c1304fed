package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sdghub/backend/dao/model"
)

// fakeStore keeps everything in maps and serializes InTx with a mutex, the
// same guarantee the row lock gives the real store.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*model.User
	projects map[uuid.UUID]*model.Project
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]*model.User),
		projects: make(map[uuid.UUID]*model.Project),
	}
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(fakeTx{f})
}

// fakeTx exposes the maps without re-locking; only valid inside InTx.
type fakeTx struct{ *fakeStore }

func (f fakeTx) InTx(_ context.Context, fn func(tx Store) error) error {
	return fn(f)
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) SaveUser(_ context.Context, u *model.User) error {
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) GetProject(_ context.Context, id uuid.UUID) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return f.GetProject(ctx, id)
}

func (f *fakeStore) CreateProject(_ context.Context, p *model.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.SubmittedAt = time.Now()
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeStore) SaveProject(_ context.Context, p *model.Project) error {
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

type fakeUploader struct {
	mu   sync.Mutex
	puts []string
	fail error
}

func (f *fakeUploader) PutBase64(_ context.Context, bucket, dataURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	key := fmt.Sprintf("%s/%s.pdf", bucket, uuid.New())
	f.puts = append(f.puts, key)
	return key, nil
}

func strPtr(s string) *string { return &s }

func completeUser() *model.User {
	prefix := model.PrefixMr
	sex := model.SexMale
	birth := time.Date(1998, 4, 1, 0, 0, 0, 0, time.UTC)
	edu := model.EducationBachelor
	u := &model.User{
		ID:       uuid.New(),
		Email:    "somchai@example.com",
		Role:     model.RoleUser,
		IsActive: true,
	}
	patch := ProfilePatch{
		Prefix:    &prefix,
		FirstName: strPtr("Somchai"),
		LastName:  strPtr("Jaidee"),
		Sex:       &sex,
		BirthDate: &birth,
		Education: &edu,
		Tel:       strPtr("0812345678"),
	}
	patch.apply(u)
	return u
}

func submitInput() SubmitInput {
	return SubmitInput{
		ThaiName:           "โครงการทดสอบ",
		EngName:            "Test Project",
		Summary:            "A project used in tests.",
		StartDate:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		SDGType:            model.SDGType("SDG4"),
		ProjectType:        model.ProjectType("human_resource_development"),
		DescriptionDataURL: "data:application/pdf;base64,JVBERi0=",
	}
}

func TestSubmitHappyPath(t *testing.T) {
	store := newFakeStore()
	user := completeUser()
	store.users[user.ID] = user
	up := &fakeUploader{}
	svc := NewService(store, up)

	p, err := svc.Submit(context.Background(), submitInput(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.SubmittedByUserID)
	assert.NotEmpty(t, p.DescriptionFile)
	assert.Len(t, up.puts, 1)
	assert.Equal(t, PendingFirstApproval, DeriveStatus(p))
}

func TestSubmitUnknownSubmitter(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeUploader{})
	_, err := svc.Submit(context.Background(), submitInput(), uuid.New())
	assert.ErrorIs(t, err, ErrSubmitterNotFound)
}

func TestSubmitIncompleteProfile(t *testing.T) {
	store := newFakeStore()
	user := completeUser()
	user.Tel = nil
	store.users[user.ID] = user
	up := &fakeUploader{}
	svc := NewService(store, up)

	_, err := svc.Submit(context.Background(), submitInput(), user.ID)
	assert.ErrorIs(t, err, ErrIncompleteProfile)
	assert.Empty(t, up.puts, "nothing should be uploaded when the gate fails")
}

func TestSubmitInlineProfileUpdate(t *testing.T) {
	store := newFakeStore()
	user := completeUser()
	user.Tel = nil
	store.users[user.ID] = user
	svc := NewService(store, &fakeUploader{})

	in := submitInput()
	in.Profile = &ProfilePatch{Tel: strPtr("0899999999")}

	_, err := svc.Submit(context.Background(), in, user.ID)
	require.NoError(t, err)
	require.NotNil(t, store.users[user.ID].Tel)
	assert.Equal(t, "0899999999", *store.users[user.ID].Tel)
}

func TestSubmitParentChecks(t *testing.T) {
	store := newFakeStore()
	user := completeUser()
	store.users[user.ID] = user
	svc := NewService(store, &fakeUploader{})

	t.Run("missing parent", func(t *testing.T) {
		in := submitInput()
		missing := uuid.New()
		in.ParentProjectID = &missing
		_, err := svc.Submit(context.Background(), in, user.ID)
		assert.ErrorIs(t, err, ErrParentNotFound)
	})

	t.Run("valid parent", func(t *testing.T) {
		parent := &model.Project{ID: uuid.New(), SubmittedByUserID: user.ID}
		store.projects[parent.ID] = parent

		in := submitInput()
		in.ParentProjectID = &parent.ID
		p, err := svc.Submit(context.Background(), in, user.ID)
		require.NoError(t, err)
		assert.Equal(t, parent.ID, *p.ParentProjectID)
	})

	t.Run("cyclic chain", func(t *testing.T) {
		a := &model.Project{ID: uuid.New(), SubmittedByUserID: user.ID}
		b := &model.Project{ID: uuid.New(), SubmittedByUserID: user.ID, ParentProjectID: &a.ID}
		a.ParentProjectID = &b.ID
		store.projects[a.ID] = a
		store.projects[b.ID] = b

		in := submitInput()
		in.ParentProjectID = &a.ID
		_, err := svc.Submit(context.Background(), in, user.ID)
		assert.ErrorIs(t, err, ErrParentCycle)
	})
}

func TestSubmitUploadFailure(t *testing.T) {
	store := newFakeStore()
	user := completeUser()
	store.users[user.ID] = user
	up := &fakeUploader{fail: assert.AnError}
	svc := NewService(store, up)

	_, err := svc.Submit(context.Background(), submitInput(), user.ID)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, store.projects, "no row without a stored file")
}

func seedProject(store *fakeStore, owner uuid.UUID) *model.Project {
	p := &model.Project{ID: uuid.New(), SubmittedByUserID: owner}
	store.projects[p.ID] = p
	return p
}

func TestAdvanceStampsGatesInOrder(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeUploader{})
	p := seedProject(store, uuid.New())
	first, second, third := uuid.New(), uuid.New(), uuid.New()

	got, err := svc.Advance(context.Background(), p.ID, first)
	require.NoError(t, err)
	require.NotNil(t, got.FirstApprovedAt)
	assert.Equal(t, first, *got.FirstApprovedByID)
	assert.Nil(t, got.SecondApprovedAt)
	assert.Equal(t, PendingSecondApproval, DeriveStatus(got))

	got, err = svc.Advance(context.Background(), p.ID, second)
	require.NoError(t, err)
	assert.Equal(t, second, *got.SecondApprovedByID)
	assert.Equal(t, PendingThirdApproval, DeriveStatus(got))

	got, err = svc.Advance(context.Background(), p.ID, third)
	require.NoError(t, err)
	assert.Equal(t, third, *got.ThirdApprovedByID)
	assert.Equal(t, FullyApproved, DeriveStatus(got))
	assert.Equal(t, time.Time(got.EndDate).Truncate(time.Second),
		got.ThirdApprovedAt.Truncate(time.Second), "third gate freezes the end date")

	_, err = svc.Advance(context.Background(), p.ID, uuid.New())
	assert.ErrorIs(t, err, ErrAlreadyFullyApproved)
}

func TestAdvanceUnknownProject(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeUploader{})
	_, err := svc.Advance(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestAdvanceAfterReject(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeUploader{})
	p := seedProject(store, uuid.New())

	_, err := svc.Reject(context.Background(), p.ID, uuid.New())
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), p.ID, uuid.New())
	assert.ErrorIs(t, err, ErrAlreadyRejected)
}

func TestRejectAtEachStage(t *testing.T) {
	for gates := 0; gates <= 2; gates++ {
		t.Run(fmt.Sprintf("after %d approvals", gates), func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, &fakeUploader{})
			p := seedProject(store, uuid.New())
			for range gates {
				_, err := svc.Advance(context.Background(), p.ID, uuid.New())
				require.NoError(t, err)
			}

			actor := uuid.New()
			got, err := svc.Reject(context.Background(), p.ID, actor)
			require.NoError(t, err)
			assert.Equal(t, actor, *got.RejectedByID)
			assert.Equal(t, Rejected, DeriveStatus(got))

			_, err = svc.Reject(context.Background(), p.ID, actor)
			assert.ErrorIs(t, err, ErrAlreadyRejected)
		})
	}
}

func TestRejectFullyApproved(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeUploader{})
	p := seedProject(store, uuid.New())
	for range 3 {
		_, err := svc.Advance(context.Background(), p.ID, uuid.New())
		require.NoError(t, err)
	}

	_, err := svc.Reject(context.Background(), p.ID, uuid.New())
	assert.ErrorIs(t, err, ErrAlreadyFullyApproved)
}

// Four goroutines race to advance the same project; the lock serializes
// them so exactly three succeed, one per gate, and the last one fails.
func TestAdvanceConcurrent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeUploader{})
	p := seedProject(store, uuid.New())

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Advance(context.Background(), p.ID, uuid.New())
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrAlreadyFullyApproved)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	final := store.projects[p.ID]
	assert.NotNil(t, final.FirstApprovedAt)
	assert.NotNil(t, final.SecondApprovedAt)
	assert.NotNil(t, final.ThirdApprovedAt)
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		p    model.Project
		want StatusLabel
	}{
		{"fresh", model.Project{}, PendingFirstApproval},
		{"one gate", model.Project{FirstApprovedAt: &now}, PendingSecondApproval},
		{"two gates", model.Project{FirstApprovedAt: &now, SecondApprovedAt: &now}, PendingThirdApproval},
		{"all gates", model.Project{FirstApprovedAt: &now, SecondApprovedAt: &now, ThirdApprovedAt: &now}, FullyApproved},
		{"rejected early", model.Project{RejectedAt: &now}, Rejected},
		{"rejected late wins over gates", model.Project{FirstApprovedAt: &now, SecondApprovedAt: &now, RejectedAt: &now}, Rejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(&tt.p))
		})
	}
}
