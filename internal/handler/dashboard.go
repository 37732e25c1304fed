package handler

import (
	"fmt"
	"sort"
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
	Registers = append(Registers, NewDashboardMgr)
}

type DashboardMgr struct {
	name  string
	store *dao.Store
	loc   *time.Location
}

func NewDashboardMgr(conf *RegisterConfig) Manager {
	loc, err := time.LoadLocation(conf.Conf.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &DashboardMgr{
		name:  "dashboard",
		store: conf.Store,
		loc:   loc,
	}
}

func (mgr *DashboardMgr) GetName() string { return mgr.name }

func (mgr *DashboardMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *DashboardMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *DashboardMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("/summary", mgr.Summary)
	g.GET("/traffic", mgr.Traffic)
	g.GET("/content-categories", mgr.ContentCategories)
	g.GET("/popular-contents", mgr.PopularContents)
	g.GET("/projects", mgr.Projects)
}

// monthRange resolves "YYYY-MM" (or, when empty, the month containing now)
// to [start, end) in the deployment timezone.
func monthRange(month string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	var year int
	var mon time.Month
	if month == "" {
		n := now.In(loc)
		year, mon = n.Year(), n.Month()
	} else {
		t, err := time.ParseInLocation("2006-01", month, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("month must be YYYY-MM: %w", err)
		}
		year, mon = t.Year(), t.Month()
	}
	start := time.Date(year, mon, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}

// bucketPerDay counts timestamps per calendar day of the month starting at
// start. Index 0 is the 1st.
func bucketPerDay(times []time.Time, start time.Time, loc *time.Location) []int {
	days := start.AddDate(0, 1, -1).Day()
	buckets := make([]int, days)
	for _, t := range times {
		day := t.In(loc).Day()
		if t.In(loc).Month() == start.Month() && day >= 1 && day <= days {
			buckets[day-1]++
		}
	}
	return buckets
}

func (mgr *DashboardMgr) resolveMonth(c *gin.Context) (start, end time.Time, ok bool) {
	start, end, err := monthRange(c.Query("month"), time.Now(), mgr.loc)
	if err != nil {
		resputil.BadRequestError(c, err.Error())
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

type MonthDelta struct {
	ThisMonth int64 `json:"thisMonth"`
	LastMonth int64 `json:"lastMonth"`
}

type SummaryResp struct {
	Logins      MonthDelta `json:"logins"`
	Enrollments MonthDelta `json:"enrollments"`
}

func (mgr *DashboardMgr) Summary(c *gin.Context) {
	start, end, ok := mgr.resolveMonth(c)
	if !ok {
		return
	}
	prevStart := start.AddDate(0, -1, 0)

	ctx := c.Request.Context()
	var resp SummaryResp
	var err error
	if resp.Logins.ThisMonth, err = mgr.store.CountLoginsBetween(ctx, start, end); err != nil {
		resputil.Error(c, "counting logins failed", resputil.NotSpecified)
		return
	}
	if resp.Logins.LastMonth, err = mgr.store.CountLoginsBetween(ctx, prevStart, start); err != nil {
		resputil.Error(c, "counting logins failed", resputil.NotSpecified)
		return
	}
	if resp.Enrollments.ThisMonth, err = mgr.store.CountEnrollmentsBetween(ctx, start, end); err != nil {
		resputil.Error(c, "counting enrollments failed", resputil.NotSpecified)
		return
	}
	if resp.Enrollments.LastMonth, err = mgr.store.CountEnrollmentsBetween(ctx, prevStart, start); err != nil {
		resputil.Error(c, "counting enrollments failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, resp)
}

type TrafficResp struct {
	Month       string `json:"month"`
	Logins      []int  `json:"logins"`      // one bucket per day
	Enrollments []int  `json:"enrollments"` // one bucket per day
}

func (mgr *DashboardMgr) Traffic(c *gin.Context) {
	start, end, ok := mgr.resolveMonth(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	loginTimes, err := mgr.store.ListLoginTimesBetween(ctx, start, end)
	if err != nil {
		resputil.Error(c, "loading login traffic failed", resputil.NotSpecified)
		return
	}
	enrollTimes, err := mgr.store.ListEnrollTimesBetween(ctx, start, end)
	if err != nil {
		resputil.Error(c, "loading enrollment traffic failed", resputil.NotSpecified)
		return
	}

	resputil.Success(c, TrafficResp{
		Month:       start.Format("2006-01"),
		Logins:      bucketPerDay(loginTimes, start, mgr.loc),
		Enrollments: bucketPerDay(enrollTimes, start, mgr.loc),
	})
}

type CategoryCount struct {
	Category model.ContentCategory `json:"category"`
	Count    int                   `json:"count"`
}

func (mgr *DashboardMgr) ContentCategories(c *gin.Context) {
	contents, err := mgr.store.ListAllContents(c.Request.Context())
	if err != nil {
		resputil.Error(c, "loading contents failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, countByCategory(contents))
}

func countByCategory(contents []model.Content) []CategoryCount {
	grouped := lo.CountValuesBy(contents, func(c model.Content) model.ContentCategory {
		return c.Category
	})
	counts := lo.MapToSlice(grouped, func(cat model.ContentCategory, n int) CategoryCount {
		return CategoryCount{Category: cat, Count: n}
	})
	return sortedDesc(counts, func(c CategoryCount) int { return c.Count })
}

const popularContentLimit = 20

type PopularContent struct {
	ContentID   string                `json:"contentID"`
	Name        string                `json:"name"`
	Category    model.ContentCategory `json:"category"`
	Enrollments int                   `json:"enrollments"`
}

func (mgr *DashboardMgr) PopularContents(c *gin.Context) {
	enrollments, err := mgr.store.ListAllEnrollments(c.Request.Context())
	if err != nil {
		resputil.Error(c, "loading enrollments failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, popularContents(enrollments, popularContentLimit))
}

func popularContents(enrollments []model.Enrollment, limit int) []PopularContent {
	byContent := lo.GroupBy(enrollments, func(e model.Enrollment) string {
		return e.ContentID.String()
	})
	popular := lo.MapToSlice(byContent, func(id string, es []model.Enrollment) PopularContent {
		p := PopularContent{ContentID: id, Enrollments: len(es)}
		if es[0].Content != nil {
			p.Name = es[0].Content.Name
			p.Category = es[0].Content.Category
		}
		return p
	})
	popular = sortedDesc(popular, func(p PopularContent) int { return p.Enrollments })
	if len(popular) > limit {
		popular = popular[:limit]
	}
	return popular
}

func sortedDesc[T any](items []T, key func(T) int) []T {
	sort.SliceStable(items, func(i, j int) bool {
		return key(items[i]) > key(items[j])
	})
	return items
}

type (
	TypeCount struct {
		Type  string `json:"type"`
		Count int    `json:"count"`
	}

	ProjectsDashboardResp struct {
		Pending        MonthDelta     `json:"pending"`
		Total          MonthDelta     `json:"total"`
		Rejected       MonthDelta     `json:"rejected"`
		PopularTypes   []TypeCount    `json:"popularTypes"`
		PopularSDGs    []TypeCount    `json:"popularSDGs"`
		StatusCounts   map[string]int `json:"statusCounts"`
		NormalProjects int            `json:"normalProjects"`
		ChildProjects  int            `json:"childProjects"`
	}
)

func (mgr *DashboardMgr) Projects(c *gin.Context) {
	start, _, ok := mgr.resolveMonth(c)
	if !ok {
		return
	}
	projects, err := mgr.store.ListAllProjects(c.Request.Context())
	if err != nil {
		resputil.Error(c, "loading projects failed", resputil.NotSpecified)
		return
	}
	resputil.Success(c, projectsDashboard(projects, start))
}

func projectsDashboard(projects []model.Project, monthStart time.Time) ProjectsDashboardResp {
	resp := ProjectsDashboardResp{
		StatusCounts: map[string]int{},
	}
	lastStart := monthStart.AddDate(0, -1, 0)

	for i := range projects {
		p := &projects[i]
		status := workflow.DeriveStatus(p)
		resp.StatusCounts[string(status)]++

		if p.ParentProjectID != nil {
			resp.ChildProjects++
		} else {
			resp.NormalProjects++
		}

		submittedThis := !p.SubmittedAt.Before(monthStart)
		submittedLast := !p.SubmittedAt.Before(lastStart) && p.SubmittedAt.Before(monthStart)
		if submittedThis {
			resp.Total.ThisMonth++
		}
		if submittedLast {
			resp.Total.LastMonth++
		}
		if !p.Terminal() {
			if submittedThis {
				resp.Pending.ThisMonth++
			}
			if submittedLast {
				resp.Pending.LastMonth++
			}
		}
		if p.Rejected() {
			if submittedThis {
				resp.Rejected.ThisMonth++
			}
			if submittedLast {
				resp.Rejected.LastMonth++
			}
		}
	}

	byType := lo.CountValuesBy(projects, func(p model.Project) string { return string(p.ProjectType) })
	resp.PopularTypes = sortedDesc(
		lo.MapToSlice(byType, func(t string, n int) TypeCount { return TypeCount{Type: t, Count: n} }),
		func(t TypeCount) int { return t.Count })

	bySDG := lo.CountValuesBy(projects, func(p model.Project) string { return string(p.SDGType) })
	resp.PopularSDGs = sortedDesc(
		lo.MapToSlice(bySDG, func(t string, n int) TypeCount { return TypeCount{Type: t, Count: n} }),
		func(t TypeCount) int { return t.Count })

	return resp
}
