package internal

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/handler"
	"github.com/sdghub/backend/internal/middleware"
	"github.com/sdghub/backend/pkg/constants"
)

type Backend struct {
	R *gin.Engine
}

// ServeHTTP makes Backend a http.Handler so it plugs straight into
// http.Server.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.R.ServeHTTP(w, r)
}

func Register(registerConfig *handler.RegisterConfig) *Backend {
	s := new(Backend)
	s.R = gin.Default()

	// Kubernetes health check
	s.R.GET("/v1/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	s.registerService(registerConfig)
	return s
}

func (b *Backend) registerService(registerConfig *handler.RegisterConfig) {
	// Enable CORS for the frontend origin in debug mode; in production both
	// ends sit behind the same ingress.
	if gin.Mode() == gin.DebugMode && registerConfig.Conf.FrontendURL != "" {
		corsConf := cors.DefaultConfig()
		corsConf.AllowOrigins = []string{registerConfig.Conf.FrontendURL}
		corsConf.AllowCredentials = true
		corsConf.AddAllowHeaders("Authorization")
		b.R.Use(cors.New(corsConf))
	}

	managers := registerManagers(registerConfig)

	public := b.R.Group(constants.PublicAPIPrefix)
	protected := b.R.Group(constants.ProtectedAPIPrefix)
	protected.Use(middleware.AuthProtected(registerConfig.TokenMgr))
	// The reviewer group serves approvers and admins.
	reviewer := b.R.Group(constants.ReviewerAPIPrefix)
	reviewer.Use(middleware.AuthProtected(registerConfig.TokenMgr),
		middleware.RequireRoles(model.RoleApprover, model.RoleAdmin))
	admin := b.R.Group(constants.AdminAPIPrefix)
	admin.Use(middleware.AuthProtected(registerConfig.TokenMgr), middleware.AuthAdmin())

	for _, mgr := range managers {
		name := mgr.GetName()
		mgr.RegisterPublic(public.Group(name))
		mgr.RegisterProtected(protected.Group(name))
		if name == "projects" {
			// project review endpoints are open to approvers, not only admins
			mgr.RegisterAdmin(reviewer.Group(name))
		} else {
			mgr.RegisterAdmin(admin.Group(name))
		}
	}
}
