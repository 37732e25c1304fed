package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the basic identity of the platform. Profile columns are nullable
// because an account created through the Google callback starts with nothing
// but name, email and picture; project submission requires the rest.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string    `gorm:"uniqueIndex;type:varchar(255);not null"`
	GoogleID  *string   `gorm:"type:varchar(64);index"`
	Role      Role      `gorm:"type:varchar(32);not null;default:user"`
	IsActive  bool      `gorm:"not null;default:true"`
	Picture   *string   `gorm:"type:varchar(512)"`

	// PasswordHash is only set for local accounts (bootstrap admins);
	// Google-provisioned users have none.
	PasswordHash *string `gorm:"type:varchar(128)"`

	Prefix    *UserPrefix     `gorm:"type:varchar(16)"`
	FirstName *string         `gorm:"type:varchar(128)"`
	LastName  *string         `gorm:"type:varchar(128)"`
	Sex       *Sex            `gorm:"type:varchar(16)"`
	BirthDate *datatypes.Date
	Education *EducationLevel `gorm:"type:varchar(32)"`
	Tel       *string         `gorm:"type:varchar(32)"`

	// RefreshFingerprint is the SHA-256 of the currently valid refresh token.
	// At most one value is valid at a time; rotation and logout replace or
	// clear it, which is what invalidates earlier refresh tokens.
	RefreshFingerprint *string `gorm:"type:varchar(64)"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// DisplayName joins prefix + first + last the way the report pages print it.
func (u *User) DisplayName() string {
	name := ""
	if u.Prefix != nil {
		name += string(*u.Prefix) + " "
	}
	if u.FirstName != nil {
		name += *u.FirstName + " "
	}
	if u.LastName != nil {
		name += *u.LastName
	}
	if name == "" {
		return u.Email
	}
	return strings.TrimSpace(name)
}

// ProfileComplete reports whether every field required for project
// submission is present.
func (u *User) ProfileComplete() bool {
	return u.Prefix != nil && u.Sex != nil && u.Education != nil &&
		u.FirstName != nil && u.LastName != nil && u.BirthDate != nil && u.Tel != nil
}

// LoginLog records one successful login; the traffic dashboard counts it.
type LoginLog struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index"`
	User    *User     `gorm:"foreignKey:UserID"`
	LoginAt time.Time `gorm:"not null;index;autoCreateTime"`
}
