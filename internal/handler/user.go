package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sdghub/backend/dao"
	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/resputil"
	"github.com/sdghub/backend/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name  string
	store *dao.Store
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name:  "users",
		store: conf.Store,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.PATCH("/profile", mgr.UpdateProfile)
	g.GET("/progress", mgr.MyProgress)
}

func (mgr *UserMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListUsers)
	g.GET("/:id", mgr.GetUser)
	g.PUT("/:id/role", mgr.UpdateRole)
	g.PUT("/:id/active", mgr.UpdateActive)
}

type UserResp struct {
	ID              string                `json:"id"`
	Email           string                `json:"email"`
	Role            model.Role            `json:"role"`
	IsActive        bool                  `json:"isActive"`
	Picture         *string               `json:"picture"`
	Prefix          *model.UserPrefix     `json:"prefix"`
	FirstName       *string               `json:"firstName"`
	LastName        *string               `json:"lastName"`
	Sex             *model.Sex            `json:"sex"`
	BirthDate       *string               `json:"birthDate"`
	Education       *model.EducationLevel `json:"education"`
	Tel             *string               `json:"tel"`
	ProfileComplete bool                  `json:"profileComplete"`
	CreatedAt       time.Time             `json:"createdAt"`
}

func toUserResp(u *model.User) UserResp {
	resp := UserResp{
		ID:              u.ID.String(),
		Email:           u.Email,
		Role:            u.Role,
		IsActive:        u.IsActive,
		Picture:         u.Picture,
		Prefix:          u.Prefix,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Sex:             u.Sex,
		Education:       u.Education,
		Tel:             u.Tel,
		ProfileComplete: u.ProfileComplete(),
		CreatedAt:       u.CreatedAt,
	}
	if u.BirthDate != nil {
		s := time.Time(*u.BirthDate).Format("2006-01-02")
		resp.BirthDate = &s
	}
	return resp
}

type UpdateProfileReq struct {
	Prefix    *model.UserPrefix     `json:"prefix"`
	FirstName *string               `json:"firstName"`
	LastName  *string               `json:"lastName"`
	Sex       *model.Sex            `json:"sex"`
	BirthDate *string               `json:"birthDate"` // "2006-01-02"
	Education *model.EducationLevel `json:"education"`
	Tel       *string               `json:"tel"`
}

func (mgr *UserMgr) UpdateProfile(c *gin.Context) {
	var req UpdateProfileReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	token := util.GetToken(c)
	user, err := mgr.store.GetUser(c.Request.Context(), token.UserID)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "User not found", resputil.NotFound)
		return
	}

	if req.Prefix != nil {
		user.Prefix = req.Prefix
	}
	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}
	if req.Sex != nil {
		user.Sex = req.Sex
	}
	if req.BirthDate != nil {
		t, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			resputil.BadRequestError(c, "birthDate must be YYYY-MM-DD")
			return
		}
		d := datatypes.Date(t)
		user.BirthDate = &d
	}
	if req.Education != nil {
		user.Education = req.Education
	}
	if req.Tel != nil {
		user.Tel = req.Tel
	}

	if err := mgr.store.SaveUser(c.Request.Context(), user); err != nil {
		resputil.Error(c, "saving profile failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toUserResp(user))
}

type ProgressSummary struct {
	Enrolled  int `json:"enrolled"`
	Completed int `json:"completed"`
}

func (mgr *UserMgr) MyProgress(c *gin.Context) {
	token := util.GetToken(c)
	enrollments, err := mgr.store.ListEnrollmentsByUser(c.Request.Context(), token.UserID)
	if err != nil {
		resputil.Error(c, "listing enrollments failed", resputil.NotSpecified)
		return
	}

	summary := ProgressSummary{Enrolled: len(enrollments)}
	for i := range enrollments {
		if enrollments[i].Completed() {
			summary.Completed++
		}
	}
	resputil.Success(c, summary)
}

func (mgr *UserMgr) ListUsers(c *gin.Context) {
	users, err := mgr.store.ListUsers(c.Request.Context())
	if err != nil {
		resputil.Error(c, "listing users failed", resputil.NotSpecified)
		return
	}
	resp := make([]UserResp, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResp(&users[i]))
	}
	resputil.Success(c, resp)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		resputil.BadRequestError(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (mgr *UserMgr) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := mgr.store.GetUser(c.Request.Context(), id)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "User not found", resputil.NotFound)
		return
	}
	resputil.Success(c, toUserResp(user))
}

type UpdateRoleReq struct {
	Role model.Role `json:"role" binding:"required"`
}

func (mgr *UserMgr) UpdateRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateRoleReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleUser && req.Role != model.RoleApprover {
		resputil.BadRequestError(c, "unknown role")
		return
	}

	user, err := mgr.store.GetUser(c.Request.Context(), id)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "User not found", resputil.NotFound)
		return
	}
	user.Role = req.Role
	if err := mgr.store.SaveUser(c.Request.Context(), user); err != nil {
		resputil.Error(c, "saving role failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toUserResp(user))
}

type UpdateActiveReq struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func (mgr *UserMgr) UpdateActive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateActiveReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	user, err := mgr.store.GetUser(c.Request.Context(), id)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "User not found", resputil.NotFound)
		return
	}
	user.IsActive = *req.IsActive
	if err := mgr.store.SaveUser(c.Request.Context(), user); err != nil {
		resputil.Error(c, "saving user failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toUserResp(user))
}
