package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sdghub/backend/dao"
	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/resputil"
	"github.com/sdghub/backend/internal/util"
	"github.com/sdghub/backend/pkg/logutils"
	"github.com/sdghub/backend/pkg/monitor"
	"github.com/sdghub/backend/pkg/oauth"
	"github.com/sdghub/backend/pkg/session"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name     string
	store    *dao.Store
	tokenMgr *util.TokenManager
	session  *session.Service
	google   oauth.Exchanger
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:     "auth",
		store:    conf.Store,
		tokenMgr: conf.TokenMgr,
		session:  conf.Session,
		google:   conf.Google,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/login", mgr.Login)
	g.GET("/google/callback", mgr.GoogleCallback)
	g.POST("/refresh", mgr.RefreshToken)
}

func (mgr *AuthMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/logout", mgr.Logout)
	g.GET("/verify", mgr.Verify)
	g.GET("/me", mgr.Me)
}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	LoginReq struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	LoginResp struct {
		AccessToken  string     `json:"accessToken"`
		RefreshToken string     `json:"refreshToken"`
		Role         model.Role `json:"role"`
	}
)

// Login authenticates a local account (email + password). Regular users
// come in through the Google callback instead.
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	l := logutils.Log.WithFields(logutils.Fields{
		"email":  req.Email,
		"method": "local",
	})

	user, err := mgr.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || user.PasswordHash == nil {
		l.Error("invalid credentials: ", err)
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid credentials", resputil.InvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		l.Error("invalid credentials: ", err)
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid credentials", resputil.InvalidCredentials)
		return
	}

	mgr.issuePair(c, user, "local")
}

type GoogleCallbackReq struct {
	Code string `form:"code" binding:"required"`
}

// GoogleCallback finishes the OAuth code flow: exchange the code, then find
// the user by provider id, falling back to an email merge for accounts that
// existed before Google sign-in, and finally create a fresh row.
func (mgr *AuthMgr) GoogleCallback(c *gin.Context) {
	var req GoogleCallbackReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	gu, err := mgr.google.Exchange(ctx, req.Code)
	if err != nil {
		logutils.Log.Error("google exchange: ", err)
		resputil.HTTPError(c, http.StatusUnauthorized, "Google sign-in failed", resputil.InvalidCredentials)
		return
	}

	user, err := mgr.findOrCreateGoogleUser(ctx, gu)
	if err != nil {
		resputil.Error(c, "provisioning user failed", resputil.NotSpecified)
		return
	}

	mgr.issuePair(c, user, "google")
}

func (mgr *AuthMgr) findOrCreateGoogleUser(ctx context.Context, gu *oauth.GoogleUser) (*model.User, error) {
	user, err := mgr.store.GetUserByGoogleID(ctx, gu.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Email merge: attach the provider id to a pre-existing account.
	user, err = mgr.store.GetUserByEmail(ctx, gu.Email)
	if err == nil {
		user.GoogleID = &gu.ID
		if user.Picture == nil && gu.Picture != "" {
			user.Picture = &gu.Picture
		}
		return user, mgr.store.SaveUser(ctx, user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &model.User{
		Email:    gu.Email,
		GoogleID: &gu.ID,
		Role:     model.RoleUser,
		IsActive: true,
	}
	if gu.Picture != "" {
		user.Picture = &gu.Picture
	}
	if err := mgr.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	logutils.Log.WithFields(logutils.Fields{"email": gu.Email}).Info("created user from google sign-in")
	return user, nil
}

func (mgr *AuthMgr) issuePair(c *gin.Context, user *model.User, method string) {
	pair, err := mgr.session.Login(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, session.ErrUserDeactivated) {
			resputil.HTTPError(c, http.StatusForbidden, "Account is deactivated", resputil.UserDeactivated)
			return
		}
		resputil.Error(c, "issuing tokens failed", resputil.NotSpecified)
		return
	}
	monitor.Logins.WithLabelValues(method).Inc()
	resputil.Success(c, LoginResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Role:         user.Role,
	})
}

type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken rotates the token pair. The presented refresh token is
// consumed whether or not the call wins a race.
func (mgr *AuthMgr) RefreshToken(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	pair, err := mgr.session.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		monitor.TokenRefreshes.WithLabelValues(monitor.OutcomeRejected).Inc()
		switch {
		case errors.Is(err, session.ErrRefreshExpired):
			resputil.HTTPError(c, http.StatusUnauthorized, "Refresh token expired", resputil.RefreshExpired)
		case errors.Is(err, session.ErrUserDeactivated):
			resputil.HTTPError(c, http.StatusForbidden, "Account is deactivated", resputil.UserDeactivated)
		default:
			resputil.HTTPError(c, http.StatusUnauthorized, "Refresh token rejected", resputil.RefreshInvalid)
		}
		return
	}
	monitor.TokenRefreshes.WithLabelValues(monitor.OutcomeOK).Inc()
	resputil.Success(c, TokenPairResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type TokenPairResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (mgr *AuthMgr) Logout(c *gin.Context) {
	token := util.GetToken(c)
	if err := mgr.session.Logout(c.Request.Context(), token.UserID); err != nil {
		resputil.Error(c, "logout failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "ok")
}

type VerifyResp struct {
	Valid     bool       `json:"valid"`
	UserID    string     `json:"userID"`
	Role      model.Role `json:"role"`
	ExpiresIn int64      `json:"expiresIn"` // seconds
}

// Verify is token introspection for the frontend: it only reaches here
// through the JWT middleware, so the token is known good and the remaining
// lifetime comes from re-checking it.
func (mgr *AuthMgr) Verify(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		token := util.GetToken(c)
		resputil.Success(c, VerifyResp{
			Valid:  true,
			UserID: token.UserID.String(),
			Role:   token.Role,
		})
		return
	}

	msg, remaining, err := mgr.tokenMgr.CheckAccessToken(raw)
	if err != nil {
		resputil.Success(c, VerifyResp{Valid: false})
		return
	}
	resputil.Success(c, VerifyResp{
		Valid:     true,
		UserID:    msg.UserID.String(),
		Role:      msg.Role,
		ExpiresIn: int64(remaining / time.Second),
	})
}

func (mgr *AuthMgr) Me(c *gin.Context) {
	token := util.GetToken(c)
	user, err := mgr.store.GetUser(c.Request.Context(), token.UserID)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "User not found", resputil.NotFound)
		return
	}
	resputil.Success(c, toUserResp(user))
}
