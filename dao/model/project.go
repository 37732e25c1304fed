package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project is the central entity of the approval workflow. The three
// approval pairs plus the rejection pair are the whole state machine:
// status is always derived from which of them are set, never stored.
type Project struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubmittedByUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	SubmittedByUser   *User     `gorm:"foreignKey:SubmittedByUserID"`

	ThaiName string `gorm:"type:varchar(255);not null"`
	EngName  string `gorm:"type:varchar(255);not null"`
	Summary  string `gorm:"type:text;not null"`

	StartDate datatypes.Date `gorm:"not null"`
	EndDate   datatypes.Date `gorm:"not null"`

	SDGType     SDGType     `gorm:"type:varchar(8);not null;index"`
	ProjectType ProjectType `gorm:"type:varchar(64);not null;index"`

	// Object key of the uploaded description PDF in the projects bucket.
	DescriptionFile string `gorm:"type:varchar(255);not null"`

	// Optional self reference forming a parent/children tree. Resolved by
	// id lookup; the write path refuses self/ancestor cycles.
	ParentProjectID *uuid.UUID `gorm:"type:uuid;index"`
	ChildProjects   []Project  `gorm:"foreignKey:ParentProjectID"`

	// Approval ladder, strictly ordered. Gate N may only be stamped when
	// all gates < N are stamped and no rejection exists.
	FirstApprovedAt      *time.Time
	FirstApprovedByID    *uuid.UUID `gorm:"type:uuid"`
	FirstApprovedByUser  *User      `gorm:"foreignKey:FirstApprovedByID"`
	SecondApprovedAt     *time.Time
	SecondApprovedByID   *uuid.UUID `gorm:"type:uuid"`
	SecondApprovedByUser *User      `gorm:"foreignKey:SecondApprovedByID"`
	ThirdApprovedAt      *time.Time
	ThirdApprovedByID    *uuid.UUID `gorm:"type:uuid"`
	ThirdApprovedByUser  *User      `gorm:"foreignKey:ThirdApprovedByID"`

	RejectedAt     *time.Time
	RejectedByID   *uuid.UUID `gorm:"type:uuid"`
	RejectedByUser *User      `gorm:"foreignKey:RejectedByID"`

	SubmittedAt time.Time `gorm:"not null;index;autoCreateTime"`
	UpdatedAt   time.Time
}

// FullyApproved reports whether the third gate is stamped.
func (p *Project) FullyApproved() bool { return p.ThirdApprovedAt != nil }

// Rejected reports whether the project is in the rejected terminal state.
func (p *Project) Rejected() bool { return p.RejectedAt != nil }

// Terminal reports whether no further transitions are valid.
func (p *Project) Terminal() bool { return p.FullyApproved() || p.Rejected() }
