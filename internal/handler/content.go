package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sdghub/backend/dao"
	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/resputil"
	"github.com/sdghub/backend/internal/util"
	"github.com/sdghub/backend/pkg/objectstore"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewContentMgr)
}

type ContentMgr struct {
	name        string
	store       *dao.Store
	objectStore ObjectStorage
	prober      DurationProber
}

func NewContentMgr(conf *RegisterConfig) Manager {
	return &ContentMgr{
		name:        "contents",
		store:       conf.Store,
		objectStore: conf.ObjectStore,
		prober:      conf.Prober,
	}
}

func (mgr *ContentMgr) GetName() string { return mgr.name }

func (mgr *ContentMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.ListPublic)
}

func (mgr *ContentMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/:id", mgr.Get)
	g.POST("/:id/enroll", mgr.Enroll)
	g.PUT("/:id/progress", mgr.UpdateProgress)
	g.GET("/enrollments/mine", mgr.MyEnrollments)
}

func (mgr *ContentMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListAll)
	g.POST("", mgr.Create)
	g.PUT("/:id", mgr.Update)
	g.DELETE("/:id", mgr.Delete)
}

type (
	CreateContentReq struct {
		Name             string                `json:"name" binding:"required"`
		Description      string                `json:"description" binding:"required"`
		Category         model.ContentCategory `json:"category" binding:"required"`
		Thumbnail        string                `json:"thumbnail" binding:"required"` // base64 data URL, image
		Video            string                `json:"video" binding:"required"`     // base64 data URL, video
		VideoDurationSec int                   `json:"videoDurationSec"`
		IsPublic         bool                  `json:"isPublic"`
	}

	ContentResp struct {
		ID               string                `json:"id"`
		Name             string                `json:"name"`
		Description      string                `json:"description"`
		Category         model.ContentCategory `json:"category"`
		ThumbnailURL     string                `json:"thumbnailURL,omitempty"`
		VideoURL         string                `json:"videoURL,omitempty"`
		VideoDurationSec int                   `json:"videoDurationSec"`
		IsPublic         bool                  `json:"isPublic"`
		CreatedAt        time.Time             `json:"createdAt"`
	}
)

func (mgr *ContentMgr) toContentResp(ctx context.Context, c *model.Content, withVideo bool) ContentResp {
	resp := ContentResp{
		ID:               c.ID.String(),
		Name:             c.Name,
		Description:      c.Description,
		Category:         c.Category,
		VideoDurationSec: c.VideoDurationSec,
		IsPublic:         c.IsPublic,
		CreatedAt:        c.CreatedAt,
	}
	if url, err := mgr.objectStore.PresignedURL(ctx, objectstore.BucketPictures, c.Thumbnail); err == nil {
		resp.ThumbnailURL = url
	}
	if withVideo {
		if url, err := mgr.objectStore.PresignedURL(ctx, objectstore.BucketVideos, c.Video); err == nil {
			resp.VideoURL = url
		}
	}
	return resp
}

func (mgr *ContentMgr) ListPublic(c *gin.Context) {
	mgr.list(c, true)
}

func (mgr *ContentMgr) ListAll(c *gin.Context) {
	mgr.list(c, false)
}

func (mgr *ContentMgr) list(c *gin.Context, publicOnly bool) {
	var category *model.ContentCategory
	if s := c.Query("category"); s != "" {
		cat := model.ContentCategory(s)
		if !model.ValidContentCategory(cat) {
			resputil.BadRequestError(c, "unknown category")
			return
		}
		category = &cat
	}

	contents, err := mgr.store.ListContents(c.Request.Context(), category, publicOnly)
	if err != nil {
		resputil.Error(c, "listing contents failed", resputil.NotSpecified)
		return
	}
	resp := make([]ContentResp, 0, len(contents))
	for i := range contents {
		resp = append(resp, mgr.toContentResp(c.Request.Context(), &contents[i], false))
	}
	resputil.Success(c, resp)
}

// Get returns one content with a presigned playback URL.
func (mgr *ContentMgr) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	content, err := mgr.store.GetContent(c.Request.Context(), id)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "Content not found", resputil.NotFound)
		return
	}
	resputil.Success(c, mgr.toContentResp(c.Request.Context(), content, true))
}

func (mgr *ContentMgr) Create(c *gin.Context) {
	var req CreateContentReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if !model.ValidContentCategory(req.Category) {
		resputil.BadRequestError(c, "unknown category")
		return
	}

	ctx := c.Request.Context()
	thumbKey, err := mgr.objectStore.PutBase64(ctx, objectstore.BucketPictures, req.Thumbnail)
	if err != nil {
		mgr.renderUploadError(c, "thumbnail", err)
		return
	}
	videoKey, err := mgr.objectStore.PutBase64(ctx, objectstore.BucketVideos, req.Video)
	if err != nil {
		mgr.renderUploadError(c, "video", err)
		return
	}

	duration, err := mgr.prober.ProbeDuration(ctx, objectstore.BucketVideos, videoKey, req.VideoDurationSec)
	if err != nil {
		duration = req.VideoDurationSec
	}

	token := util.GetToken(c)
	content := &model.Content{
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		Thumbnail:        thumbKey,
		Video:            videoKey,
		VideoDurationSec: duration,
		IsPublic:         req.IsPublic,
		CreatedByUserID:  token.UserID,
	}
	if err := mgr.store.CreateContent(ctx, content); err != nil {
		resputil.Error(c, "creating content failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, mgr.toContentResp(ctx, content, false))
}

type UpdateContentReq struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Category    *model.ContentCategory `json:"category"`
	Thumbnail   *string                `json:"thumbnail"` // base64 data URL when replacing
	IsPublic    *bool                  `json:"isPublic"`
}

func (mgr *ContentMgr) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateContentReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	content, err := mgr.store.GetContent(ctx, id)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "Content not found", resputil.NotFound)
		return
	}

	if req.Name != nil {
		content.Name = *req.Name
	}
	if req.Description != nil {
		content.Description = *req.Description
	}
	if req.Category != nil {
		if !model.ValidContentCategory(*req.Category) {
			resputil.BadRequestError(c, "unknown category")
			return
		}
		content.Category = *req.Category
	}
	if req.Thumbnail != nil {
		key, err := mgr.objectStore.PutBase64(ctx, objectstore.BucketPictures, *req.Thumbnail)
		if err != nil {
			mgr.renderUploadError(c, "thumbnail", err)
			return
		}
		content.Thumbnail = key
	}
	if req.IsPublic != nil {
		content.IsPublic = *req.IsPublic
	}

	if err := mgr.store.SaveContent(ctx, content); err != nil {
		resputil.Error(c, "saving content failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, mgr.toContentResp(ctx, content, false))
}

func (mgr *ContentMgr) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := mgr.store.DeleteContent(c.Request.Context(), id); err != nil {
		resputil.Error(c, "deleting content failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "ok")
}

func (mgr *ContentMgr) renderUploadError(c *gin.Context, field string, err error) {
	if errors.Is(err, objectstore.ErrUnsupportedMediaType) {
		resputil.HTTPError(c, http.StatusUnsupportedMediaType, field+" media type not allowed", resputil.UnsupportedMediaType)
		return
	}
	resputil.Error(c, "storing "+field+" failed", resputil.UploadFailed)
}

type EnrollmentResp struct {
	ContentID  string       `json:"contentID"`
	Content    *ContentResp `json:"content,omitempty"`
	EnrollAt   time.Time    `json:"enrollAt"`
	Progress   int          `json:"progress"`
	CompleteAt *time.Time   `json:"completeAt"`
	Completed  bool         `json:"completed"`
}

func (mgr *ContentMgr) toEnrollmentResp(ctx context.Context, e *model.Enrollment) EnrollmentResp {
	resp := EnrollmentResp{
		ContentID:  e.ContentID.String(),
		EnrollAt:   e.EnrollAt,
		Progress:   e.Progress,
		CompleteAt: e.CompleteAt,
		Completed:  e.Completed(),
	}
	if e.Content != nil {
		cr := mgr.toContentResp(ctx, e.Content, false)
		resp.Content = &cr
	}
	return resp
}

// Enroll is idempotent: enrolling twice returns the existing row.
func (mgr *ContentMgr) Enroll(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := mgr.store.GetContent(ctx, id); err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "Content not found", resputil.NotFound)
		return
	}

	token := util.GetToken(c)
	if existing, err := mgr.store.GetEnrollment(ctx, token.UserID, id); err == nil {
		resputil.Success(c, mgr.toEnrollmentResp(ctx, existing))
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.Error(c, "loading enrollment failed", resputil.NotSpecified)
		return
	}

	enrollment := &model.Enrollment{UserID: token.UserID, ContentID: id}
	if err := mgr.store.CreateEnrollment(ctx, enrollment); err != nil {
		resputil.Error(c, "enrolling failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, mgr.toEnrollmentResp(ctx, enrollment))
}

type UpdateProgressReq struct {
	Progress *int `json:"progress" binding:"required"`
}

// UpdateProgress moves the watch position forward. Progress never goes
// backwards; hitting 100 stamps CompleteAt so both completion markers stay
// in sync.
func (mgr *ContentMgr) UpdateProgress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateProgressReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if *req.Progress < 0 || *req.Progress > 100 {
		resputil.BadRequestError(c, "progress must be 0-100")
		return
	}

	ctx := c.Request.Context()
	token := util.GetToken(c)
	enrollment, err := mgr.store.GetEnrollment(ctx, token.UserID, id)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "Not enrolled", resputil.NotFound)
		return
	}

	if *req.Progress > enrollment.Progress {
		enrollment.Progress = *req.Progress
	}
	if enrollment.Progress == 100 && enrollment.CompleteAt == nil {
		now := time.Now()
		enrollment.CompleteAt = &now
	}
	if err := mgr.store.SaveEnrollment(ctx, enrollment); err != nil {
		resputil.Error(c, "saving progress failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, mgr.toEnrollmentResp(ctx, enrollment))
}

func (mgr *ContentMgr) MyEnrollments(c *gin.Context) {
	token := util.GetToken(c)
	enrollments, err := mgr.store.ListEnrollmentsByUser(c.Request.Context(), token.UserID)
	if err != nil {
		resputil.Error(c, "listing enrollments failed", resputil.NotSpecified)
		return
	}
	resp := make([]EnrollmentResp, 0, len(enrollments))
	for i := range enrollments {
		resp = append(resp, mgr.toEnrollmentResp(c.Request.Context(), &enrollments[i]))
	}
	resputil.Success(c, resp)
}
