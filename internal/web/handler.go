// Package web serves the bot's status surface: health, service info and the
// outcome of the last command sync.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/cexll/rivalsbot/internal/reconcile"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Status holds the result of the most recent sync.
type Status struct {
	mu      sync.RWMutex
	report  *reconcile.Report
	lastErr error
}

// Record stores the outcome of a sync. A failed pass keeps the previous
// report.
func (s *Status) Record(report *reconcile.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report != nil {
		s.report = report
	}
	s.lastErr = err
}

// Snapshot returns the last report and error.
func (s *Status) Snapshot() (*reconcile.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report, s.lastErr
}

// Handler handles status requests.
type Handler struct {
	service   string
	status    *Status
	templates *template.Template
}

// NewHandler creates a new status handler.
func NewHandler(service string, status *Status) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"resultColor": resultColor,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if status == nil {
		status = &Status{}
	}
	return &Handler{service: service, status: status, templates: tmpl}, nil
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", h.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/commands", h.handleCommands).Methods(http.MethodGet)
	r.HandleFunc("/commands/view", h.handleCommandsView).Methods(http.MethodGet)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	report, err := h.status.Snapshot()
	info := map[string]any{
		"service": h.service,
		"status":  "running",
		"synced":  report != nil && err == nil,
	}
	if report != nil {
		info["scope"] = report.Scope
	}
	writeJSON(w, http.StatusOK, info)
}

type outcomeView struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

type reportView struct {
	Scope      string        `json:"scope"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DurationMS int64         `json:"duration_ms"`
	Duration   string        `json:"-"`
	Summary    string        `json:"summary"`
	Outcomes   []outcomeView `json:"outcomes"`
}

type statusView struct {
	Report    *reportView `json:"report"`
	LastError string      `json:"last_error,omitempty"`
}

func (h *Handler) view() statusView {
	report, err := h.status.Snapshot()
	var v statusView
	if err != nil {
		v.LastError = err.Error()
	}
	if report == nil {
		return v
	}

	rv := &reportView{
		Scope:      report.Scope,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		DurationMS: report.Duration().Milliseconds(),
		Duration:   report.Duration().Round(time.Millisecond).String(),
		Summary:    report.Summary(),
		Outcomes:   make([]outcomeView, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		ov := outcomeView{Name: o.Name, Action: string(o.Action), OK: o.OK()}
		if o.Err != nil {
			ov.Error = o.Err.Error()
		}
		rv.Outcomes = append(rv.Outcomes, ov)
	}
	v.Report = rv
	return v
}

func (h *Handler) handleCommands(w http.ResponseWriter, _ *http.Request) {
	v := h.view()
	if v.Report == nil && v.LastError == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no sync has run"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleCommandsView(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "commands.html", h.view()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func resultColor(o outcomeView) string {
	switch {
	case !o.OK:
		return "#dc3545"
	case o.Action == string(reconcile.ActionUnchanged) || o.Action == string(reconcile.ActionSkipped):
		return "#6c757d"
	default:
		return "#198754"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
