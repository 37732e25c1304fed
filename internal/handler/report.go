package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/sdghub/backend/dao"
	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/resputil"
	"github.com/sdghub/backend/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewReportMgr)
}

// ReportMgr serves the flat admin report tables the frontend exports to
// spreadsheets.
type ReportMgr struct {
	name  string
	store *dao.Store
}

func NewReportMgr(conf *RegisterConfig) Manager {
	return &ReportMgr{
		name:  "reports",
		store: conf.Store,
	}
}

func (mgr *ReportMgr) GetName() string { return mgr.name }

func (mgr *ReportMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ReportMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *ReportMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("/users", mgr.Users)
	g.GET("/contents", mgr.Contents)
	g.GET("/projects", mgr.Projects)
}

type UserReportRow struct {
	UserID           string `json:"userID"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	CoursesTaken     int    `json:"coursesTaken"`
	CoursesCompleted int    `json:"coursesCompleted"`
}

func (mgr *ReportMgr) Users(c *gin.Context) {
	ctx := c.Request.Context()
	users, err := mgr.store.ListUsersWithEnrollments(ctx)
	if err != nil {
		resputil.Error(c, "loading users failed", resputil.NotSpecified)
		return
	}
	enrollments, err := mgr.store.ListAllEnrollments(ctx)
	if err != nil {
		resputil.Error(c, "loading enrollments failed", resputil.NotSpecified)
		return
	}

	byUser := lo.GroupBy(enrollments, func(e model.Enrollment) string { return e.UserID.String() })
	rows := make([]UserReportRow, 0, len(users))
	for i := range users {
		u := &users[i]
		row := UserReportRow{
			UserID: u.ID.String(),
			Name:   u.DisplayName(),
			Email:  u.Email,
		}
		for _, e := range byUser[row.UserID] {
			row.CoursesTaken++
			if e.Completed() {
				row.CoursesCompleted++
			}
		}
		rows = append(rows, row)
	}
	resputil.Success(c, rows)
}

type ContentReportRow struct {
	ContentID string                `json:"contentID"`
	Name      string                `json:"name"`
	Category  model.ContentCategory `json:"category"`
	Enrolled  int                   `json:"enrolled"`
	Completed int                   `json:"completed"`
}

func (mgr *ReportMgr) Contents(c *gin.Context) {
	ctx := c.Request.Context()
	contents, err := mgr.store.ListAllContents(ctx)
	if err != nil {
		resputil.Error(c, "loading contents failed", resputil.NotSpecified)
		return
	}
	enrollments, err := mgr.store.ListAllEnrollments(ctx)
	if err != nil {
		resputil.Error(c, "loading enrollments failed", resputil.NotSpecified)
		return
	}

	resputil.Success(c, contentReport(contents, enrollments))
}

func contentReport(contents []model.Content, enrollments []model.Enrollment) []ContentReportRow {
	byContent := lo.GroupBy(enrollments, func(e model.Enrollment) string { return e.ContentID.String() })
	rows := make([]ContentReportRow, 0, len(contents))
	for i := range contents {
		ct := &contents[i]
		row := ContentReportRow{
			ContentID: ct.ID.String(),
			Name:      ct.Name,
			Category:  ct.Category,
		}
		for _, e := range byContent[row.ContentID] {
			row.Enrolled++
			if e.Completed() {
				row.Completed++
			}
		}
		rows = append(rows, row)
	}
	return rows
}

type ProjectReportRow struct {
	ProjectID   string               `json:"projectID"`
	EngName     string               `json:"engName"`
	SDGType     model.SDGType        `json:"sdgType"`
	ProjectType model.ProjectType    `json:"projectType"`
	Status      workflow.StatusLabel `json:"status"`
	SubmittedAt time.Time            `json:"submittedAt"`
}

func (mgr *ReportMgr) Projects(c *gin.Context) {
	projects, err := mgr.store.ListAllProjects(c.Request.Context())
	if err != nil {
		resputil.Error(c, "loading projects failed", resputil.NotSpecified)
		return
	}
	rows := make([]ProjectReportRow, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		rows = append(rows, ProjectReportRow{
			ProjectID:   p.ID.String(),
			EngName:     p.EngName,
			SDGType:     p.SDGType,
			ProjectType: p.ProjectType,
			Status:      workflow.DeriveStatus(p),
			SubmittedAt: p.SubmittedAt,
		})
	}
	resputil.Success(c, rows)
}
