// Package workflow implements the three-stage project approval state
// machine. All writes go through one database transaction with the project
// row locked, so concurrent approvals serialize instead of double-stamping
// a gate.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sdghub/backend/dao/model"
)

var (
	ErrSubmitterNotFound    = errors.New("submitter not found")
	ErrIncompleteProfile    = errors.New("submitter profile is incomplete")
	ErrParentNotFound       = errors.New("parent project not found")
	ErrParentCycle          = errors.New("parent chain forms a cycle or is too deep")
	ErrProjectNotFound      = errors.New("project not found")
	ErrAlreadyFullyApproved = errors.New("project is already fully approved")
	ErrAlreadyRejected      = errors.New("project is already rejected")
)

// maxParentDepth bounds the ancestor walk during submit. Continuation
// chains in practice are two or three levels; anything deeper is treated
// as a cycle.
const maxParentDepth = 8

// Store is the persistence slice the workflow needs. Implementations must
// make GetProjectForUpdate take a row lock when called inside InTx.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	SaveUser(ctx context.Context, u *model.User) error
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error)
	CreateProject(ctx context.Context, p *model.Project) error
	SaveProject(ctx context.Context, p *model.Project) error
}

// Uploader stores a base64 data URL in a bucket and returns the object key.
type Uploader interface {
	PutBase64(ctx context.Context, bucket, dataURL string) (string, error)
}

type Service struct {
	store    Store
	uploader Uploader
	now      func() time.Time
}

func NewService(store Store, uploader Uploader) *Service {
	return &Service{store: store, uploader: uploader, now: time.Now}
}

// ProfilePatch carries profile fields supplied inline with a submission.
// Nil fields leave the stored value untouched.
type ProfilePatch struct {
	Prefix    *model.UserPrefix
	FirstName *string
	LastName  *string
	Sex       *model.Sex
	BirthDate *time.Time
	Education *model.EducationLevel
	Tel       *string
}

func (p *ProfilePatch) apply(u *model.User) {
	if p == nil {
		return
	}
	if p.Prefix != nil {
		u.Prefix = p.Prefix
	}
	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.LastName != nil {
		u.LastName = p.LastName
	}
	if p.Sex != nil {
		u.Sex = p.Sex
	}
	if p.BirthDate != nil {
		d := datatypes.Date(*p.BirthDate)
		u.BirthDate = &d
	}
	if p.Education != nil {
		u.Education = p.Education
	}
	if p.Tel != nil {
		u.Tel = p.Tel
	}
}

type SubmitInput struct {
	ThaiName           string
	EngName            string
	Summary            string
	StartDate          time.Time
	EndDate            time.Time
	SDGType            model.SDGType
	ProjectType        model.ProjectType
	DescriptionDataURL string
	ParentProjectID    *uuid.UUID
	Profile            *ProfilePatch
}

// Submit creates a project in the initial state. Inline profile fields are
// written to the user row first, then the completeness gate runs against
// the merged profile; the description PDF is uploaded before the row is
// created so a stored project always has its file.
func (s *Service) Submit(ctx context.Context, in SubmitInput, submitterID uuid.UUID) (*model.Project, error) {
	var created *model.Project
	err := s.store.InTx(ctx, func(tx Store) error {
		user, err := tx.GetUser(ctx, submitterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmitterNotFound
			}
			return err
		}

		in.Profile.apply(user)
		if !user.ProfileComplete() {
			return ErrIncompleteProfile
		}
		if in.Profile != nil {
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}
		}

		if in.ParentProjectID != nil {
			if err := s.checkParentChain(ctx, tx, *in.ParentProjectID); err != nil {
				return err
			}
		}

		key, err := s.uploader.PutBase64(ctx, "projects", in.DescriptionDataURL)
		if err != nil {
			return err
		}

		created = &model.Project{
			SubmittedByUserID: submitterID,
			ThaiName:          in.ThaiName,
			EngName:           in.EngName,
			Summary:           in.Summary,
			StartDate:         datatypes.Date(in.StartDate),
			EndDate:           datatypes.Date(in.EndDate),
			SDGType:           in.SDGType,
			ProjectType:       in.ProjectType,
			DescriptionFile:   key,
			ParentProjectID:   in.ParentProjectID,
		}
		return tx.CreateProject(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	klog.Infof("project %s submitted by %s", created.ID, submitterID)
	return created, nil
}

// checkParentChain verifies the parent exists and that following parent
// links terminates within maxParentDepth hops.
func (s *Service) checkParentChain(ctx context.Context, tx Store, parentID uuid.UUID) error {
	current := parentID
	for depth := 0; depth < maxParentDepth; depth++ {
		parent, err := tx.GetProject(ctx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if depth == 0 {
					return ErrParentNotFound
				}
				return ErrParentCycle
			}
			return err
		}
		if parent.ParentProjectID == nil {
			return nil
		}
		if *parent.ParentProjectID == parentID {
			return ErrParentCycle
		}
		current = *parent.ParentProjectID
	}
	return ErrParentCycle
}

// Advance stamps the next unset approval gate in order. The third gate also
// freezes the project's end date to the approval time.
func (s *Service) Advance(ctx context.Context, projectID, actorID uuid.UUID) (*model.Project, error) {
	var out *model.Project
	err := s.store.InTx(ctx, func(tx Store) error {
		p, err := tx.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if p.Rejected() {
			return ErrAlreadyRejected
		}
		if p.FullyApproved() {
			return ErrAlreadyFullyApproved
		}

		now := s.now()
		switch {
		case p.FirstApprovedAt == nil:
			p.FirstApprovedAt = &now
			p.FirstApprovedByID = &actorID
		case p.SecondApprovedAt == nil:
			p.SecondApprovedAt = &now
			p.SecondApprovedByID = &actorID
		default:
			p.ThirdApprovedAt = &now
			p.ThirdApprovedByID = &actorID
			p.EndDate = datatypes.Date(now)
		}

		if err := tx.SaveProject(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	klog.Infof("project %s advanced to %s by %s", out.ID, DeriveStatus(out), actorID)
	return out, nil
}

// Reject terminates a project from any non-terminal state.
func (s *Service) Reject(ctx context.Context, projectID, actorID uuid.UUID) (*model.Project, error) {
	var out *model.Project
	err := s.store.InTx(ctx, func(tx Store) error {
		p, err := tx.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if p.FullyApproved() {
			return ErrAlreadyFullyApproved
		}
		if p.Rejected() {
			return ErrAlreadyRejected
		}

		now := s.now()
		p.RejectedAt = &now
		p.RejectedByID = &actorID

		if err := tx.SaveProject(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	klog.Infof("project %s rejected by %s", out.ID, actorID)
	return out, nil
}
