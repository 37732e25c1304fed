package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/resputil"
	"github.com/sdghub/backend/internal/util"
	"github.com/sdghub/backend/pkg/authz"
)

// bearerToken pulls the access token from the Authorization header or,
// failing that, the access_token cookie the frontend sets.
func bearerToken(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if t := strings.Split(authHeader, " "); len(t) == 2 && t[0] == "Bearer" {
		return t[1]
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

func AuthProtected(tokenMgr *util.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			resputil.HTTPError(c, http.StatusUnauthorized, "missing token", resputil.TokenInvalid)
			return
		}

		token, _, err := tokenMgr.CheckAccessToken(raw)
		if err != nil {
			if errors.Is(err, util.ErrTokenExpired) {
				resputil.HTTPError(c, http.StatusUnauthorized, "token expired", resputil.TokenExpired)
				return
			}
			resputil.HTTPError(c, http.StatusUnauthorized, "invalid token", resputil.TokenInvalid)
			return
		}

		util.SetJWTContext(c, token)
		c.Next()
	}
}

// RequireRoles gates a route group on the role check. Must run after
// AuthProtected, which is what puts the claims in the context.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.GetToken(c)
		switch authz.Authorize(token.Role, roles...) {
		case authz.Allow:
			c.Next()
		case authz.DenyUnauthenticated:
			resputil.HTTPError(c, http.StatusUnauthorized, "authentication required", resputil.TokenInvalid)
		default:
			resputil.HTTPError(c, http.StatusForbidden, "insufficient role", resputil.UserNotAllowed)
		}
	}
}

func AuthAdmin() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin)
}

func AuthApprover() gin.HandlerFunc {
	return RequireRoles(model.RoleApprover)
}
