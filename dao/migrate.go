package dao

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sdghub/backend/dao/model"
)

// Migrate applies the schema migrations in order. New migrations are
// appended, never edited.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			// Initial schema: identity, projects, contents, enrollments.
			ID: "20250301_initial",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.User{},
					&model.Project{},
					&model.Content{},
					&model.Enrollment{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"enrollments", "contents", "projects", "users",
				)
			},
		},
		{
			// Login log feeding the traffic dashboard.
			ID: "20250412_login_log",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.LoginLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("login_logs")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	klog.Info("database migration success")
	return nil
}
