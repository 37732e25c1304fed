package util

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sdghub/backend/dao/model"
)

const (
	UserIDKey = "x-user-id"
	EmailKey  = "x-user-email"
	RoleKey   = "x-user-role"
)

func SetJWTContext(c *gin.Context, msg JWTMessage) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(EmailKey, msg.Email)
	c.Set(RoleKey, msg.Role)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage

	userID, _ := ctx.Get(UserIDKey)
	if id, ok := userID.(uuid.UUID); ok {
		msg.UserID = id
	}
	msg.Email = ctx.GetString(EmailKey)

	role, _ := ctx.Get(RoleKey)
	if r, ok := role.(model.Role); ok {
		msg.Role = r
	} else {
		msg.Role = model.RolePublic
	}
	return msg
}
