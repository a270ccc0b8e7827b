package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/ratio-dashboard/internal/dashboard"
	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/internal/session"
	"github.com/iwvelando/ratio-dashboard/internal/store"
	"github.com/iwvelando/ratio-dashboard/internal/trend"
	"github.com/iwvelando/ratio-dashboard/pkg/constants"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed static/* templates/*
var assets embed.FS

// Options configures the dashboard handler.
type Options struct {
	Defaults       ratios.FinancialInputs
	Policy         *trend.Policy
	CurrencySymbol string
	MaxRequestSize int64
	SessionTTL     time.Duration
	MaxSessions    int
	Version        string
}

type handler struct {
	logger   *zap.Logger
	sessions *session.Registry
	opts     Options
	page     *template.Template
}

// NewHandler constructs the HTTP handler that serves the web UI and ratio API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRequestSize <= 0 {
		opts.MaxRequestSize = constants.DefaultMaxRequestSizeBytes
	}
	if opts.Policy == nil {
		opts.Policy = trend.DefaultPolicy()
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = constants.DefaultCurrencySymbol
	}
	opts.Version = strings.TrimSpace(opts.Version)
	if opts.Version == "" {
		opts.Version = "dev"
	}

	page := template.Must(template.New("index.html.tmpl").Funcs(template.FuncMap{
		"barPercent": barPercent,
	}).ParseFS(assets, "templates/index.html.tmpl"))

	h := &handler{
		logger:   logger,
		sessions: session.NewRegistry(logger.Named("session"), opts.Defaults, opts.SessionTTL, opts.MaxSessions),
		opts:     opts,
		page:     page,
	}

	mux := http.NewServeMux()

	// Session-bound state and edits
	mux.HandleFunc("/api/session", h.handleSession)
	mux.HandleFunc("/api/session/field", h.handleSetField)
	mux.HandleFunc("/api/session/inputs", h.handleReplaceInputs)
	mux.HandleFunc("/api/session/reset", h.handleReset)
	mux.HandleFunc("/api/session/export", h.handleExport)

	// Stateless computation
	mux.HandleFunc("/api/ratios", h.handleRatios)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	mux.HandleFunc("/", h.handleIndex)

	return mux
}

type stateResponse struct {
	Inputs ratios.FinancialInputs `json:"inputs"`
	Ratios ratios.RatioResult     `json:"ratios"`
	View   dashboard.View         `json:"view"`
}

type fieldRequest struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

func (h *handler) buildState(inputs ratios.FinancialInputs, result ratios.RatioResult, tab dashboard.Tab) stateResponse {
	return stateResponse{
		Inputs: inputs,
		Ratios: result,
		View: dashboard.Build(inputs, result, tab, dashboard.Options{
			CurrencySymbol: h.opts.CurrencySymbol,
			Policy:         h.opts.Policy,
		}),
	}
}

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	tab := dashboard.ParseTab(r.URL.Query().Get("tab"))
	var state stateResponse
	id := h.sessions.With(sessionID(r), func(s *store.Store) {
		state = h.buildState(s.Snapshot(), s.Result(), tab)
	})
	h.setSessionCookie(w, r, id)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, struct {
		State   stateResponse
		Version string
	}{State: state, Version: h.opts.Version}); err != nil {
		h.logger.Error("failed to render dashboard",
			zap.String("op", "server.handleIndex"),
			zap.Error(err),
		)
	}
}

func (h *handler) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	tab := dashboard.ParseTab(r.URL.Query().Get("tab"))
	var state stateResponse
	id := h.sessions.With(sessionID(r), func(s *store.Store) {
		state = h.buildState(s.Snapshot(), s.Result(), tab)
	})
	h.setSessionCookie(w, r, id)
	h.writeJSON(w, http.StatusOK, state)
}

func (h *handler) handleSetField(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSetField"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req fieldRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	field, err := ratios.ParseField(req.Field)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	raw := cast.ToString(req.Value)

	h.mutate(w, r, func(s *store.Store) { s.SetField(field, raw) })
}

func (h *handler) handleReplaceInputs(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReplaceInputs"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var patch map[string]interface{}
	if !h.decodeJSON(w, r, &patch, op) {
		return
	}
	updates := make(map[ratios.Field]string, len(patch))
	for name, value := range patch {
		field, err := ratios.ParseField(name)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		updates[field] = cast.ToString(value)
	}

	// Omitted fields keep their current value.
	h.mutate(w, r, func(s *store.Store) {
		next := s.Snapshot()
		for field, raw := range updates {
			next = next.With(field, ratios.ParseAmount(raw))
		}
		s.Replace(next)
	})
}

func (h *handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.mutate(w, r, func(s *store.Store) { s.Reset() })
}

// mutate applies edit to the caller's session and responds with the state
// delivered to the store's observers.
func (h *handler) mutate(w http.ResponseWriter, r *http.Request, edit func(*store.Store)) {
	tab := dashboard.ParseTab(r.URL.Query().Get("tab"))

	var state stateResponse
	id := h.sessions.With(sessionID(r), func(s *store.Store) {
		cancel := s.Subscribe(func(in ratios.FinancialInputs, res ratios.RatioResult) {
			state = h.buildState(in, res, tab)
		})
		defer cancel()
		edit(s)
	})

	h.setSessionCookie(w, r, id)
	h.writeJSON(w, http.StatusOK, state)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var inputs ratios.FinancialInputs
	id := h.sessions.With(sessionID(r), func(s *store.Store) { inputs = s.Snapshot() })
	h.setSessionCookie(w, r, id)

	yamlBytes, err := yaml.Marshal(struct {
		Inputs ratios.FinancialInputs `yaml:"inputs"`
	}{Inputs: inputs})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode inputs: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleRatios(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRatios"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var inputs ratios.FinancialInputs
	if !h.decodeJSON(w, r, &inputs, op) {
		return
	}

	start := time.Now()
	result := ratios.Compute(inputs)
	state := h.buildState(inputs, result, dashboard.ParseTab(r.URL.Query().Get("tab")))

	h.logger.Debug("ratios computed",
		zap.String("op", op),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, state)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.opts.Version,
	})
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.opts.MaxRequestSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(constants.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *handler) setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	if id == sessionID(r) {
		return
	}
	cookie := &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.opts.SessionTTL > 0 {
		cookie.MaxAge = int(h.opts.SessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Warn("ratio request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// barPercent scales value against the largest bar of a chart for rendering.
func barPercent(bars []dashboard.Bar, value float64) float64 {
	max := 0.0
	for _, b := range bars {
		if b.Value > max {
			max = b.Value
		}
	}
	if max <= 0 || value <= 0 {
		return 0
	}
	return value / max * 100
}
