package dao

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sdghub/backend/dao/model"
)

// ErrNotFound is returned when a row does not exist. It aliases the gorm
// sentinel so packages that only see the store interfaces can test for it
// without importing this package.
var ErrNotFound = gorm.ErrRecordNotFound

// Store is the hand-written repository over gorm. The workflow and session
// services consume it through their own narrow interfaces so tests can
// substitute in-memory fakes.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn against a store bound to one database transaction. The
// transaction commits when fn returns nil and rolls back otherwise,
// including on context cancellation.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// --- users ---

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "google_id = ?", googleID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) SaveUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

// SetRefreshFingerprint unconditionally replaces the stored fingerprint
// (login and logout paths).
func (s *Store) SetRefreshFingerprint(ctx context.Context, id uuid.UUID, fp *string) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("refresh_fingerprint", fp).Error
}

// SwapRefreshFingerprint is the rotation compare-and-swap: the update only
// lands if the stored fingerprint still equals old. A concurrent rotation
// that committed first leaves RowsAffected at zero here, which the session
// service reports as an invalid refresh.
func (s *Store) SwapRefreshFingerprint(ctx context.Context, id uuid.UUID, old, next string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_fingerprint = ?", id, old).
		Update("refresh_fingerprint", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) RecordLogin(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Create(&model.LoginLog{UserID: userID}).Error
}

// --- projects ---

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProjectForUpdate takes a row lock; only meaningful inside InTx. The
// lock is what serializes two concurrent Advance calls on the same project.
func (s *Store) GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) SaveProject(ctx context.Context, p *model.Project) error {
	return s.db.WithContext(ctx).Save(p).Error
}
