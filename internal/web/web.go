// Package web serves the sync form as a small server-rendered HTML application.
//
// # Routes
//
//	GET  /                  → login placeholder
//	GET  /peloton-to-garmin → sync form, progress bar and results
//	POST /peloton-to-garmin → apply field edits; action=sync also starts a request
//	GET  /healthz           → liveness and in-flight state as JSON
//
// # Request Lifecycle
//
// A sync runs on a goroutine through [form.SyncForm.SubmitAsync], so the POST redirects right away. While the
// request is in flight the page carries a meta refresh pointing at the #result anchor, which lands the browser
// on the results once they arrive.
//
// Templates are embedded and parsed once per [App].
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/allezgo/internal/form"
	"github.com/desertthunder/allezgo/internal/formatter"
	"github.com/desertthunder/allezgo/internal/server"
	"github.com/desertthunder/allezgo/internal/shared"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	SyncPath      = "/peloton-to-garmin"
	ResultURL     = SyncPath + "#result"
	refreshPeriod = 2
)

// Page is the data passed to every template.
type Page struct {
	Title      string
	Notice     string
	Refresh    int
	RefreshURL string
	State      form.State
	View       formatter.ResultView
}

// App holds the handlers of the web surface.
type App struct {
	form    *form.SyncForm
	logger  *log.Logger
	pages   map[string]*template.Template
	limiter *server.IPLimiter
}

// New parses the embedded templates and creates an [App] bound to f.
func New(f *form.SyncForm, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"login", "sync"} {
		tmpl, err := template.ParseFS(templateFiles, "templates/layout.html", "templates/result.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &App{form: f, logger: logger, pages: pages}, nil
}

// Register adds the app's routes to r. Only form posts are rate limited.
func (a *App) Register(r server.Router) {
	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(a.Login))
	r.Handle(http.MethodGet, SyncPath, http.HandlerFunc(a.ShowForm))
	r.Handle(http.MethodPost, SyncPath, server.RateLimit(a.limiter)(http.HandlerFunc(a.UpdateForm)))
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(a.Health))
}

// Routes returns a [server.BasicRouter] with the standard middleware stack and the app's routes.
//
// cfg.RateLimit and cfg.RateBurst size the per-client limiter on form posts.
func (a *App) Routes(cfg shared.ServerConfig) *server.BasicRouter {
	a.limiter = server.NewIPLimiter(cfg.RateLimit, cfg.RateBurst)

	r := server.NewBasicRouter()
	r.Use(
		server.Recovery(a.logger),
		server.RequestID(nil),
		server.Logging(a.logger),
		server.SecurityHeaders,
	)
	a.Register(r)
	return r
}

// Login renders the placeholder landing page.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "login", Page{Title: "Login"})
}

// ShowForm renders the sync form from the current state.
func (a *App) ShowForm(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, r, http.StatusOK, "")
}

// UpdateForm applies posted fields and, for action=sync, starts a request.
func (a *App) UpdateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.renderForm(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	if err := a.apply(r); err != nil {
		a.logger.Warn("failed to save form", "error", err)
		a.renderForm(w, r, http.StatusInternalServerError, "Your credentials could not be saved on this computer.")
		return
	}

	if r.PostForm.Get("action") != "sync" {
		http.Redirect(w, r, SyncPath, http.StatusSeeOther)
		return
	}

	if !a.form.IsSubmittable() {
		a.renderForm(w, r, http.StatusUnprocessableEntity, "Fill in all five fields before synchronizing.")
		return
	}

	if _, err := a.form.SubmitAsync(context.WithoutCancel(r.Context())); err != nil {
		switch {
		case errors.Is(err, form.ErrSubmitInFlight):
			a.renderForm(w, r, http.StatusConflict, "A sync is already running.")
		default:
			a.logger.Error("failed to start sync", "error", err)
			a.renderForm(w, r, http.StatusServiceUnavailable, "The sync service is unavailable.")
		}
		return
	}

	http.Redirect(w, r, ResultURL, http.StatusSeeOther)
}

// Health reports liveness and whether a sync is running.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body, err := shared.MarshalJSON(map[string]any{"status": "ok", "inFlight": a.form.InFlight()}, false)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// apply copies posted values into the form. Only fields present in the request are touched; the
// hidden "options" field marks that the checkboxes were part of the post, since unchecked boxes are not sent.
func (a *App) apply(r *http.Request) error {
	ctx := r.Context()
	values := r.PostForm

	fields := []struct {
		name string
		set  func(context.Context, string) error
	}{
		{"pelotonEmail", a.form.SetPelotonEmail},
		{"pelotonPassword", a.form.SetPelotonPassword},
		{"garminEmail", a.form.SetGarminEmail},
		{"garminPassword", a.form.SetGarminPassword},
		{"garminPelotonGearName", a.form.SetGarminGearName},
	}

	var errs []error
	for _, field := range fields {
		if !values.Has(field.name) {
			continue
		}
		errs = append(errs, field.set(ctx, values.Get(field.name)))
	}

	if values.Has("options") {
		errs = append(errs,
			a.form.SetTodayOnly(ctx, values.Get("todayOnly") == "on"),
			a.form.SetRememberCredentials(ctx, values.Get("rememberMyCredentials") == "on"),
		)
	}

	return errors.Join(errs...)
}

func (a *App) renderForm(w http.ResponseWriter, r *http.Request, status int, notice string) {
	s := a.form.Snapshot()
	page := Page{
		Title:  "Peloton to Garmin",
		Notice: notice,
		State:  s,
		View:   formatter.NewResultView(s.Result, s.ResultDays),
	}
	if s.InFlight {
		page.Refresh = refreshPeriod
		page.RefreshURL = ResultURL
	}
	a.render(w, r, status, "sync", page)
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := a.pages[name].ExecuteTemplate(w, "layout", page); err != nil {
		id, _ := shared.GetRequestID(r.Context())
		a.logger.Error("failed to render template", "template", name, "request_id", id, "error", err)
	}
}
