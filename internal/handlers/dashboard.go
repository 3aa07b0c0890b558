package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PratikDhanave/analytics-portal/internal/analytics"
	"github.com/PratikDhanave/analytics-portal/internal/auth"
	"github.com/PratikDhanave/analytics-portal/internal/event"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardTemplates parses the embedded dashboard pages.
func DashboardTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// loginView feeds login.html.
type loginView struct {
	Error string
}

// distributionRow is one slice of the event distribution, with a precomputed
// bar width for rendering.
type distributionRow struct {
	Name    string
	Count   int
	Percent int
}

// seriesRow is one (bucket, event) row of the per-minute volume table.
type seriesRow struct {
	Bucket string
	Event  string
	Count  int
}

// dashboardView feeds dashboard.html. A load failure populates LoadError and
// the rest of the page still renders over whatever was fetched.
type dashboardView struct {
	LoadError string
	Deleted   string

	HasData     bool
	TotalEvents int
	UniqueUsers int
	TopEvent    string

	Distribution []distributionRow

	SeriesOK bool
	Series   []seriesRow

	Table analytics.Table
}

// RegisterDashboardRoutes wires the operator surface.
//
// Public: GET/POST /login
// Authenticated: GET / (load + compute + render), POST /delete, POST /logout
func RegisterDashboardRoutes(r *gin.Engine, st EventStore, sessions *auth.Sessions, log *zap.Logger) {
	r.GET("/login", func(c *gin.Context) {
		if sessions.LoggedIn(auth.Token(c)) {
			c.Redirect(http.StatusFound, "/")
			return
		}
		c.HTML(http.StatusOK, "login.html", loginView{})
	})

	r.POST("/login", func(c *gin.Context) {
		token, ok := sessions.Login(c.PostForm("password"))
		if !ok {
			// Wrong secret re-prompts; no lockout, no rate limiting.
			c.HTML(http.StatusOK, "login.html", loginView{Error: "Wrong password"})
			return
		}
		c.SetCookie(auth.SessionCookie, token, 0, "/", "", false, true)
		c.Redirect(http.StatusFound, "/")
	})

	r.POST("/logout", func(c *gin.Context) {
		sessions.Logout(auth.Token(c))
		c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
		c.Redirect(http.StatusFound, "/login")
	})

	admin := r.Group("/")
	admin.Use(auth.RequireLogin(sessions, "/login"))

	admin.GET("", func(c *gin.Context) {
		view := dashboardView{Deleted: c.Query("deleted")}

		stored, err := st.LoadAll(c.Request.Context())
		if err != nil {
			// Read failures are reported to the operator inline; the page
			// itself still renders.
			log.Error("full scan failed", zap.Error(err))
			view.LoadError = err.Error()
		}

		records := make([]event.Record, 0, len(stored))
		for _, s := range stored {
			records = append(records, s.Record)
		}

		if len(records) > 0 {
			view.HasData = true

			summary := analytics.Summarize(records)
			view.TotalEvents = summary.TotalEvents
			view.UniqueUsers = summary.UniqueUsers
			view.TopEvent = summary.TopEvent

			dist := analytics.Distribution(records)
			max := 0
			for _, d := range dist {
				if d.Count > max {
					max = d.Count
				}
			}
			for _, d := range dist {
				pct := 0
				if max > 0 {
					pct = d.Count * 100 / max
				}
				view.Distribution = append(view.Distribution, distributionRow{
					Name:    d.Name,
					Count:   d.Count,
					Percent: pct,
				})
			}

			points, ok := analytics.TimeSeries(records)
			view.SeriesOK = ok
			for _, p := range points {
				view.Series = append(view.Series, seriesRow{
					Bucket: p.Bucket.Format("2006-01-02 15:04"),
					Event:  p.Event,
					Count:  p.Count,
				})
			}

			view.Table = analytics.TableView(records)
		}

		c.HTML(http.StatusOK, "dashboard.html", view)
	})

	admin.POST("delete", func(c *gin.Context) {
		deleted, err := st.DeleteAll(c.Request.Context())
		if err != nil {
			log.Error("delete all failed", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "dashboard.html", dashboardView{
				LoadError: err.Error(),
			})
			return
		}
		log.Info("all events deleted", zap.Int64("deleted", deleted))
		c.Redirect(http.StatusFound, fmt.Sprintf("/?deleted=%d", deleted))
	})
}
