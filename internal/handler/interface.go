package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/sdghub/backend/dao"
	"github.com/sdghub/backend/internal/util"
	"github.com/sdghub/backend/pkg/config"
	"github.com/sdghub/backend/pkg/oauth"
	"github.com/sdghub/backend/pkg/session"
	"github.com/sdghub/backend/pkg/workflow"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// ObjectStorage is the slice of the object store the handlers use.
type ObjectStorage interface {
	PutBase64(ctx context.Context, bucket, dataURL string) (string, error)
	PresignedURL(ctx context.Context, bucket, key string) (string, error)
}

// DurationProber reports a video's length in seconds. The default
// implementation trusts the duration declared in the upload request;
// deployments with ffprobe sidecars plug in their own.
type DurationProber interface {
	ProbeDuration(ctx context.Context, bucket, key string, declaredSec int) (int, error)
}

// RegisterConfig carries the shared services every manager constructor
// receives.
type RegisterConfig struct {
	Conf        *config.Config
	Store       *dao.Store
	TokenMgr    *util.TokenManager
	Session     *session.Service
	Workflow    *workflow.Service
	ObjectStore ObjectStorage
	Google      oauth.Exchanger
	Prober      DurationProber
}

// Registers collects the manager constructors; each handler file appends
// its own in init().
var Registers []func(*RegisterConfig) Manager
