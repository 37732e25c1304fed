package helper

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sdghub/backend/dao"
	"github.com/sdghub/backend/internal/handler"
	"github.com/sdghub/backend/internal/util"
	"github.com/sdghub/backend/pkg/config"
	"github.com/sdghub/backend/pkg/cronjob"
	"github.com/sdghub/backend/pkg/oauth"
	"github.com/sdghub/backend/pkg/objectstore"
	"github.com/sdghub/backend/pkg/session"
	mysmtp "github.com/sdghub/backend/pkg/smtp"
	"github.com/sdghub/backend/pkg/workflow"
)

type ConfigInitializer struct {
	backendConfig *config.Config
}

func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{
		backendConfig: config.GetConfig(),
	}
}

func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment reads .debug.env during local development to pick up
// port overrides without touching the config file.
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}

	if err := godotenv.Load(".debug.env"); err != nil {
		return err
	}

	if be := os.Getenv("SDGHUB_BE_PORT"); be != "" {
		ci.backendConfig.ServerAddr = ":" + be
	}
	if ms := os.Getenv("SDGHUB_MS_PORT"); ms != "" {
		ci.backendConfig.MetricsAddr = ":" + ms
	}
	return nil
}

// InitializeRegisterConfig wires the shared services: database, migrations,
// token manager, session, workflow, object storage and the Google client.
func (ci *ConfigInitializer) InitializeRegisterConfig(ctx context.Context) (*handler.RegisterConfig, error) {
	db := dao.GetDB()
	if err := dao.Migrate(db); err != nil {
		return nil, err
	}
	store := dao.NewStore(db)

	objectStore, err := objectstore.NewClient(ctx, &ci.backendConfig.Storage)
	if err != nil {
		return nil, err
	}

	tokenMgr := util.GetTokenMgr()
	return &handler.RegisterConfig{
		Conf:        ci.backendConfig,
		Store:       store,
		TokenMgr:    tokenMgr,
		Session:     session.NewService(tokenMgr, store),
		Workflow:    workflow.NewService(dao.NewWorkflowStore(store), objectStore),
		ObjectStore: objectStore,
		Google:      oauth.NewGoogleClient(ci.backendConfig),
		Prober:      handler.DefaultDurationProber(),
	}, nil
}

// NewReminder builds the approver digest job from the same store.
func (ci *ConfigInitializer) NewReminder(store *dao.Store) *cronjob.ReminderManager {
	mailer := mysmtp.NewMailer(&ci.backendConfig.SMTP)
	return cronjob.NewReminderManager(ci.backendConfig, store, mailer)
}
