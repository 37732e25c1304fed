package model

import (
	"time"

	"github.com/google/uuid"
)

// Content is one e-learning item (a video course).
type Content struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text;not null"`
	Category    ContentCategory `gorm:"type:varchar(64);not null;index"`

	// Object keys in the pictures / videos buckets.
	Thumbnail string `gorm:"type:varchar(255);not null"`
	Video     string `gorm:"type:varchar(255);not null"`

	VideoDurationSec int  `gorm:"not null"`
	IsPublic         bool `gorm:"not null;default:false"`

	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedByUser   *User     `gorm:"foreignKey:CreatedByUserID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Enrollment joins a user to a content item.
//
// Progress 100 and a non-nil CompleteAt mean the same thing; every read
// side must treat them as equivalent complete-markers.
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enroll_user_content"`
	User      *User     `gorm:"foreignKey:UserID"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enroll_user_content"`
	Content   *Content  `gorm:"foreignKey:ContentID"`

	EnrollAt   time.Time `gorm:"not null;index;autoCreateTime"`
	Progress   int       `gorm:"not null;default:0"` // 0-100
	CompleteAt *time.Time
}

// Completed reports course completion under either marker.
func (e *Enrollment) Completed() bool {
	return e.Progress == 100 || e.CompleteAt != nil
}
