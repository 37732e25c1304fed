package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/sdghub/backend/dao/model"
)

// pendingProjectCond matches projects still waiting for a gate.
const pendingProjectCond = "third_approved_at IS NULL AND rejected_at IS NULL"

// --- user queries ---

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (s *Store) ListApproverEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("role = ? AND is_active", model.RoleApprover).
		Pluck("email", &emails).Error
	return emails, err
}

// --- project queries ---

type ProjectFilter struct {
	SDGType     *model.SDGType
	ProjectType *model.ProjectType
	PendingOnly bool
}

func (s *Store) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	q := s.db.WithContext(ctx).
		Preload("SubmittedByUser").
		Order("submitted_at DESC")
	if f.SDGType != nil {
		q = q.Where("sdg_type = ?", *f.SDGType)
	}
	if f.ProjectType != nil {
		q = q.Where("project_type = ?", *f.ProjectType)
	}
	if f.PendingOnly {
		q = q.Where(pendingProjectCond)
	}
	var projects []model.Project
	err := q.Find(&projects).Error
	return projects, err
}

func (s *Store) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where("submitted_by_user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&projects).Error
	return projects, err
}

// LatestProjectByUser returns the most recently submitted project of a
// user, or ErrNotFound when they have none.
func (s *Store) LatestProjectByUser(ctx context.Context, userID uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := s.db.WithContext(ctx).
		Where("submitted_by_user_id = ?", userID).
		Order("submitted_at DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPendingProjectsSince(ctx context.Context, submittedBefore time.Time) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where(pendingProjectCond).
		Where("submitted_at < ?", submittedBefore).
		Order("submitted_at ASC").
		Find(&projects).Error
	return projects, err
}

// --- content & enrollment queries ---

func (s *Store) GetContent(ctx context.Context, id uuid.UUID) (*model.Content, error) {
	var c model.Content
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateContent(ctx context.Context, c *model.Content) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) SaveContent(ctx context.Context, c *model.Content) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *Store) DeleteContent(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.Content{}, "id = ?", id).Error
}

func (s *Store) ListContents(ctx context.Context, category *model.ContentCategory, publicOnly bool) ([]model.Content, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	if publicOnly {
		q = q.Where("is_public")
	}
	var contents []model.Content
	err := q.Find(&contents).Error
	return contents, err
}

func (s *Store) GetEnrollment(ctx context.Context, userID, contentID uuid.UUID) (*model.Enrollment, error) {
	var e model.Enrollment
	err := s.db.WithContext(ctx).
		First(&e, "user_id = ? AND content_id = ?", userID, contentID).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *Store) SaveEnrollment(ctx context.Context, e *model.Enrollment) error {
	return s.db.WithContext(ctx).Save(e).Error
}

func (s *Store) ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Content").
		Where("user_id = ?", userID).
		Order("enroll_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// --- dashboard reads ---
//
// Dashboard queries are routed to the read replica when one is configured.

func (s *Store) replica(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Clauses(dbresolver.Read)
}

func (s *Store) CountLoginsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := s.replica(ctx).Model(&model.LoginLog{}).
		Where("login_at >= ? AND login_at < ?", from, to).
		Count(&n).Error
	return n, err
}

func (s *Store) CountEnrollmentsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := s.replica(ctx).Model(&model.Enrollment{}).
		Where("enroll_at >= ? AND enroll_at < ?", from, to).
		Count(&n).Error
	return n, err
}

func (s *Store) ListLoginTimesBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.replica(ctx).Model(&model.LoginLog{}).
		Where("login_at >= ? AND login_at < ?", from, to).
		Pluck("login_at", &times).Error
	return times, err
}

func (s *Store) ListEnrollTimesBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.replica(ctx).Model(&model.Enrollment{}).
		Where("enroll_at >= ? AND enroll_at < ?", from, to).
		Pluck("enroll_at", &times).Error
	return times, err
}

func (s *Store) ListAllContents(ctx context.Context) ([]model.Content, error) {
	var contents []model.Content
	err := s.replica(ctx).Find(&contents).Error
	return contents, err
}

func (s *Store) ListAllEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.replica(ctx).Preload("Content").Find(&enrollments).Error
	return enrollments, err
}

func (s *Store) ListAllProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := s.replica(ctx).Find(&projects).Error
	return projects, err
}

func (s *Store) ListUsersWithEnrollments(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.replica(ctx).Find(&users).Error
	return users, err
}
