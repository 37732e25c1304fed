package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sdghub/backend/dao"
	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/resputil"
	"github.com/sdghub/backend/internal/util"
	"github.com/sdghub/backend/pkg/monitor"
	"github.com/sdghub/backend/pkg/objectstore"
	"github.com/sdghub/backend/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name        string
	store       *dao.Store
	workflow    *workflow.Service
	objectStore ObjectStorage
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name:        "projects",
		store:       conf.Store,
		workflow:    conf.Workflow,
		objectStore: conf.ObjectStore,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.Submit)
	g.GET("/latest", mgr.Latest)
	g.GET("/mine", mgr.ListMine)
	g.GET("/:id", mgr.Get)
}

// RegisterAdmin also serves approvers; the route group carries the role
// middleware.
func (mgr *ProjectMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListAll)
	g.POST("/:id/approve", mgr.Approve)
	g.POST("/:id/reject", mgr.Reject)
}

type (
	SubmitProjectReq struct {
		ThaiName        string  `json:"thaiName" binding:"required"`
		EngName         string  `json:"engName" binding:"required"`
		Summary         string  `json:"summary" binding:"required"`
		StartDate       string  `json:"startDate" binding:"required"` // "2006-01-02"
		EndDate         string  `json:"endDate" binding:"required"`
		SDGType         string  `json:"sdgType" binding:"required"`
		ProjectType     string  `json:"projectType" binding:"required"`
		DescriptionFile string  `json:"descriptionFile" binding:"required"` // base64 data URL, PDF
		ParentProjectID *string `json:"parentProjectID"`

		Profile *UpdateProfileReq `json:"profile"` // inline profile completion
	}

	ProjectResp struct {
		ID               string               `json:"id"`
		ThaiName         string               `json:"thaiName"`
		EngName          string               `json:"engName"`
		Summary          string               `json:"summary"`
		StartDate        string               `json:"startDate"`
		EndDate          string               `json:"endDate"`
		SDGType          model.SDGType        `json:"sdgType"`
		ProjectType      model.ProjectType    `json:"projectType"`
		ParentProjectID  *string              `json:"parentProjectID"`
		SubmittedBy      string               `json:"submittedBy"`
		SubmittedAt      time.Time            `json:"submittedAt"`
		Status           workflow.StatusLabel `json:"status"`
		FirstApprovedAt  *time.Time           `json:"firstApprovedAt"`
		SecondApprovedAt *time.Time           `json:"secondApprovedAt"`
		ThirdApprovedAt  *time.Time           `json:"thirdApprovedAt"`
		RejectedAt       *time.Time           `json:"rejectedAt"`
		DescriptionURL   string               `json:"descriptionURL,omitempty"`
	}
)

func (mgr *ProjectMgr) toProjectResp(c *gin.Context, p *model.Project, withURL bool) ProjectResp {
	resp := ProjectResp{
		ID:               p.ID.String(),
		ThaiName:         p.ThaiName,
		EngName:          p.EngName,
		Summary:          p.Summary,
		StartDate:        time.Time(p.StartDate).Format("2006-01-02"),
		EndDate:          time.Time(p.EndDate).Format("2006-01-02"),
		SDGType:          p.SDGType,
		ProjectType:      p.ProjectType,
		SubmittedBy:      p.SubmittedByUserID.String(),
		SubmittedAt:      p.SubmittedAt,
		Status:           workflow.DeriveStatus(p),
		FirstApprovedAt:  p.FirstApprovedAt,
		SecondApprovedAt: p.SecondApprovedAt,
		ThirdApprovedAt:  p.ThirdApprovedAt,
		RejectedAt:       p.RejectedAt,
	}
	if p.ParentProjectID != nil {
		s := p.ParentProjectID.String()
		resp.ParentProjectID = &s
	}
	if withURL {
		url, err := mgr.objectStore.PresignedURL(c.Request.Context(), objectstore.BucketProjects, p.DescriptionFile)
		if err == nil {
			resp.DescriptionURL = url
		}
	}
	return resp
}

func (mgr *ProjectMgr) Submit(c *gin.Context) {
	var req SubmitProjectReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	in, ok := mgr.buildSubmitInput(c, &req)
	if !ok {
		return
	}

	token := util.GetToken(c)
	project, err := mgr.workflow.Submit(c.Request.Context(), in, token.UserID)
	if err != nil {
		monitor.WorkflowTransitions.WithLabelValues("submit", monitor.OutcomeRejected).Inc()
		switch {
		case errors.Is(err, workflow.ErrIncompleteProfile):
			resputil.HTTPError(c, http.StatusUnprocessableEntity, "Profile is incomplete", resputil.IncompleteProfile)
		case errors.Is(err, workflow.ErrSubmitterNotFound):
			resputil.HTTPError(c, http.StatusNotFound, "Submitter not found", resputil.NotFound)
		case errors.Is(err, workflow.ErrParentNotFound):
			resputil.HTTPError(c, http.StatusNotFound, "Parent project not found", resputil.NotFound)
		case errors.Is(err, workflow.ErrParentCycle):
			resputil.HTTPError(c, http.StatusUnprocessableEntity, "Invalid parent chain", resputil.ParentCycle)
		case errors.Is(err, objectstore.ErrUnsupportedMediaType):
			resputil.HTTPError(c, http.StatusUnsupportedMediaType, "Description must be a PDF", resputil.UnsupportedMediaType)
		case errors.Is(err, objectstore.ErrUploadFailed):
			resputil.Error(c, "storing description failed", resputil.UploadFailed)
		default:
			resputil.Error(c, "submitting project failed", resputil.NotSpecified)
		}
		return
	}
	monitor.WorkflowTransitions.WithLabelValues("submit", monitor.OutcomeOK).Inc()
	resputil.Success(c, mgr.toProjectResp(c, project, false))
}

func (mgr *ProjectMgr) buildSubmitInput(c *gin.Context, req *SubmitProjectReq) (workflow.SubmitInput, bool) {
	var in workflow.SubmitInput

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		resputil.BadRequestError(c, "startDate must be YYYY-MM-DD")
		return in, false
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		resputil.BadRequestError(c, "endDate must be YYYY-MM-DD")
		return in, false
	}
	if end.Before(start) {
		resputil.BadRequestError(c, "endDate is before startDate")
		return in, false
	}
	if !model.ValidSDGType(model.SDGType(req.SDGType)) {
		resputil.BadRequestError(c, "unknown sdgType")
		return in, false
	}
	if !model.ValidProjectType(model.ProjectType(req.ProjectType)) {
		resputil.BadRequestError(c, "unknown projectType")
		return in, false
	}

	in = workflow.SubmitInput{
		ThaiName:           req.ThaiName,
		EngName:            req.EngName,
		Summary:            req.Summary,
		StartDate:          start,
		EndDate:            end,
		SDGType:            model.SDGType(req.SDGType),
		ProjectType:        model.ProjectType(req.ProjectType),
		DescriptionDataURL: req.DescriptionFile,
	}

	if req.ParentProjectID != nil {
		parentID, err := uuid.Parse(*req.ParentProjectID)
		if err != nil {
			resputil.BadRequestError(c, "invalid parentProjectID")
			return in, false
		}
		in.ParentProjectID = &parentID
	}

	if req.Profile != nil {
		patch := &workflow.ProfilePatch{
			Prefix:    req.Profile.Prefix,
			FirstName: req.Profile.FirstName,
			LastName:  req.Profile.LastName,
			Sex:       req.Profile.Sex,
			Education: req.Profile.Education,
			Tel:       req.Profile.Tel,
		}
		if req.Profile.BirthDate != nil {
			birth, err := time.Parse("2006-01-02", *req.Profile.BirthDate)
			if err != nil {
				resputil.BadRequestError(c, "birthDate must be YYYY-MM-DD")
				return in, false
			}
			patch.BirthDate = &birth
		}
		in.Profile = patch
	}
	return in, true
}

// Latest returns the caller's most recent submission with a presigned
// description URL; the frontend landing page polls it.
func (mgr *ProjectMgr) Latest(c *gin.Context) {
	token := util.GetToken(c)
	project, err := mgr.store.LatestProjectByUser(c.Request.Context(), token.UserID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			resputil.HTTPError(c, http.StatusNotFound, "No project yet", resputil.NotFound)
			return
		}
		resputil.Error(c, "loading latest project failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, mgr.toProjectResp(c, project, true))
}

func (mgr *ProjectMgr) ListMine(c *gin.Context) {
	token := util.GetToken(c)
	projects, err := mgr.store.ListProjectsByUser(c.Request.Context(), token.UserID)
	if err != nil {
		resputil.Error(c, "listing projects failed", resputil.NotSpecified)
		return
	}
	resp := make([]ProjectResp, 0, len(projects))
	for i := range projects {
		resp = append(resp, mgr.toProjectResp(c, &projects[i], false))
	}
	resputil.Success(c, resp)
}

// Get serves a single project to its owner or to approvers/admins. Others
// get 404, not 403, so project ids stay unguessable.
func (mgr *ProjectMgr) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	project, err := mgr.store.GetProject(c.Request.Context(), id)
	if err != nil {
		resputil.HTTPError(c, http.StatusNotFound, "Project not found", resputil.NotFound)
		return
	}

	token := util.GetToken(c)
	isReviewer := token.Role == model.RoleAdmin || token.Role == model.RoleApprover
	if project.SubmittedByUserID != token.UserID && !isReviewer {
		resputil.HTTPError(c, http.StatusNotFound, "Project not found", resputil.NotFound)
		return
	}
	resputil.Success(c, mgr.toProjectResp(c, project, true))
}

func (mgr *ProjectMgr) ListAll(c *gin.Context) {
	var filter dao.ProjectFilter
	if s := c.Query("sdgType"); s != "" {
		t := model.SDGType(s)
		if !model.ValidSDGType(t) {
			resputil.BadRequestError(c, "unknown sdgType")
			return
		}
		filter.SDGType = &t
	}
	if s := c.Query("projectType"); s != "" {
		t := model.ProjectType(s)
		if !model.ValidProjectType(t) {
			resputil.BadRequestError(c, "unknown projectType")
			return
		}
		filter.ProjectType = &t
	}
	filter.PendingOnly = c.Query("pending") == "true"

	projects, err := mgr.store.ListProjects(c.Request.Context(), filter)
	if err != nil {
		resputil.Error(c, "listing projects failed", resputil.NotSpecified)
		return
	}
	resp := make([]ProjectResp, 0, len(projects))
	for i := range projects {
		resp = append(resp, mgr.toProjectResp(c, &projects[i], false))
	}
	resputil.Success(c, resp)
}

func (mgr *ProjectMgr) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	token := util.GetToken(c)
	project, err := mgr.workflow.Advance(c.Request.Context(), id, token.UserID)
	if err != nil {
		monitor.WorkflowTransitions.WithLabelValues("advance", monitor.OutcomeRejected).Inc()
		mgr.renderWorkflowError(c, err)
		return
	}
	monitor.WorkflowTransitions.WithLabelValues("advance", monitor.OutcomeOK).Inc()
	resputil.Success(c, mgr.toProjectResp(c, project, false))
}

func (mgr *ProjectMgr) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	token := util.GetToken(c)
	project, err := mgr.workflow.Reject(c.Request.Context(), id, token.UserID)
	if err != nil {
		monitor.WorkflowTransitions.WithLabelValues("reject", monitor.OutcomeRejected).Inc()
		mgr.renderWorkflowError(c, err)
		return
	}
	monitor.WorkflowTransitions.WithLabelValues("reject", monitor.OutcomeOK).Inc()
	resputil.Success(c, mgr.toProjectResp(c, project, false))
}

func (mgr *ProjectMgr) renderWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrProjectNotFound):
		resputil.HTTPError(c, http.StatusNotFound, "Project not found", resputil.NotFound)
	case errors.Is(err, workflow.ErrAlreadyFullyApproved):
		resputil.HTTPError(c, http.StatusConflict, "Project is already fully approved", resputil.AlreadyFullyApproved)
	case errors.Is(err, workflow.ErrAlreadyRejected):
		resputil.HTTPError(c, http.StatusConflict, "Project is already rejected", resputil.AlreadyRejected)
	default:
		resputil.Error(c, "updating project failed", resputil.NotSpecified)
	}
}
