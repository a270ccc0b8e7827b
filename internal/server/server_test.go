package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/ratio-dashboard/internal/dashboard"
	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/pkg/constants"
	"github.com/iwvelando/ratio-dashboard/pkg/testutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newTestHandler(maxRequest int64) http.Handler {
	return NewHandler(zap.NewNop(), Options{
		Defaults:       testutil.BaselineInputs(),
		MaxRequestSize: maxRequest,
		SessionTTL:     time.Hour,
		Version:        "1.2.3",
	})
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	t.Fatalf("expected %s cookie to be set", constants.SessionCookieName)
	return nil
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var state stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to decode state: %v; body=%s", err, rec.Body.String())
	}
	return state
}

func TestIndexRendersDashboard(t *testing.T) {
	handler := newTestHandler(0)

	req := httptest.NewRequest(http.MethodGet, "/?tab=efficiency", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected HTML content type, got %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"Financial Ratio Dashboard", "Net Profit Margin", "Efficiency Analysis", "1.2.3", `data-field="revenue"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	sessionCookie(t, rec)
}

func TestUnknownPathReturnsNotFound(t *testing.T) {
	handler := newTestHandler(0)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStaticAssetsServed(t *testing.T) {
	handler := newTestHandler(0)

	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestSessionStateDefaults(t *testing.T) {
	handler := newTestHandler(0)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	state := decodeState(t, rec)
	if state.Inputs != testutil.BaselineInputs() {
		t.Errorf("expected baseline inputs, got %+v", state.Inputs)
	}
	testutil.AssertClose(t, "currentRatio", state.Ratios.CurrentRatio, 2)
	testutil.AssertClose(t, "netMargin", state.Ratios.NetMargin, 20)
	if state.View.ActiveTab != dashboard.TabLiquidity {
		t.Errorf("expected liquidity tab, got %q", state.View.ActiveTab)
	}
	if len(state.View.Cards) != 4 {
		t.Errorf("expected 4 cards, got %d", len(state.View.Cards))
	}
}

func TestSetFieldRoundTrip(t *testing.T) {
	handler := newTestHandler(0)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	cookie := sessionCookie(t, first)

	tests := []struct {
		name  string
		body  string
		check func(ratios.FinancialInputs) bool
	}{
		{"string value", `{"field":"currentLiabilities","value":"30000"}`, func(in ratios.FinancialInputs) bool { return in.CurrentLiabilities == 30000 }},
		{"numeric value", `{"field":"inventory","value":2500}`, func(in ratios.FinancialInputs) bool { return in.Inventory == 2500 }},
		{"empty value", `{"field":"revenue","value":""}`, func(in ratios.FinancialInputs) bool { return in.Revenue == 0 }},
		{"case insensitive", `{"field":"NETINCOME","value":"abc"}`, func(in ratios.FinancialInputs) bool { return in.NetIncome == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/session/field?tab=profitability", strings.NewReader(tt.body))
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			for _, c := range rec.Result().Cookies() {
				if c.Name == constants.SessionCookieName {
					t.Fatalf("expected existing session to be reused, got new cookie %q", c.Value)
				}
			}
			state := decodeState(t, rec)
			if !tt.check(state.Inputs) {
				t.Errorf("unexpected inputs %+v", state.Inputs)
			}
			if state.Ratios != ratios.Compute(state.Inputs) {
				t.Errorf("ratios out of sync with inputs: %+v", state.Ratios)
			}
			if state.View.ActiveTab != dashboard.TabProfitability {
				t.Errorf("expected profitability tab, got %q", state.View.ActiveTab)
			}
		})
	}

	// Later reads observe every edit.
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	state := decodeState(t, rec)
	if state.Inputs.CurrentLiabilities != 30000 || state.Inputs.Revenue != 0 {
		t.Errorf("expected persisted edits, got %+v", state.Inputs)
	}
	testutil.AssertClose(t, "currentRatio", state.Ratios.CurrentRatio, 1)
}

func TestOverflowingInputsStayEncodable(t *testing.T) {
	handler := newTestHandler(0)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/session/field",
		strings.NewReader(`{"field":"revenue","value":"0.001"}`)))
	cookie := sessionCookie(t, first)

	edit := httptest.NewRequest(http.MethodPost, "/api/session/field", strings.NewReader(`{"field":"netIncome","value":"1e308"}`))
	edit.AddCookie(cookie)
	editRec := httptest.NewRecorder()
	handler.ServeHTTP(editRec, edit)

	if editRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", editRec.Code)
	}
	state := decodeState(t, editRec)
	if state.Inputs.NetIncome != 1e308 {
		t.Errorf("expected net income to be stored, got %v", state.Inputs.NetIncome)
	}
	if state.Ratios.NetMargin != 0 {
		t.Errorf("expected overflowing net margin to be 0, got %v", state.Ratios.NetMargin)
	}

	// The session keeps answering after the overflow.
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("expected a non-empty 200, got %d with %d bytes", rec.Code, rec.Body.Len())
	}
	testutil.AssertFinite(t, decodeState(t, rec).Ratios)
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	h := &handler{logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.writeJSON(rec, http.StatusOK, map[string]float64{"bad": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	if resp["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestSessionCapReplacesOldestSession(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{
		Defaults:    testutil.BaselineInputs(),
		SessionTTL:  time.Hour,
		MaxSessions: 1,
	})

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	oldCookie := sessionCookie(t, first)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	sessionCookie(t, second)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(oldCookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := sessionCookie(t, rec); got.Value == oldCookie.Value {
		t.Error("expected the evicted session to be replaced with a new id")
	}
}

func TestSetFieldErrors(t *testing.T) {
	handler := newTestHandler(0)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"unknown field", http.MethodPost, `{"field":"ebitda","value":"1"}`, http.StatusBadRequest},
		{"invalid json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/session/field", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestReplaceInputsAndReset(t *testing.T) {
	handler := newTestHandler(0)

	req := httptest.NewRequest(http.MethodPost, "/api/session/inputs", strings.NewReader(`{"revenue":"200000","cogs":50000}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)

	state := decodeState(t, rec)
	want := testutil.BaselineInputs()
	want.Revenue = 200000
	want.COGS = 50000
	if state.Inputs != want {
		t.Fatalf("expected %+v, got %+v", want, state.Inputs)
	}

	bad := httptest.NewRequest(http.MethodPost, "/api/session/inputs", strings.NewReader(`{"ebitda":1}`))
	bad.AddCookie(cookie)
	badRec := httptest.NewRecorder()
	handler.ServeHTTP(badRec, bad)
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", badRec.Code)
	}

	reset := httptest.NewRequest(http.MethodPost, "/api/session/reset", nil)
	reset.AddCookie(cookie)
	resetRec := httptest.NewRecorder()
	handler.ServeHTTP(resetRec, reset)
	if resetRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resetRec.Code)
	}
	if got := decodeState(t, resetRec).Inputs; got != testutil.BaselineInputs() {
		t.Errorf("expected reset to restore defaults, got %+v", got)
	}
}

func TestExportReturnsYAML(t *testing.T) {
	handler := newTestHandler(0)

	edit := httptest.NewRequest(http.MethodPost, "/api/session/field", strings.NewReader(`{"field":"inventory","value":"1234"}`))
	editRec := httptest.NewRecorder()
	handler.ServeHTTP(editRec, edit)
	cookie := sessionCookie(t, editRec)

	req := httptest.NewRequest(http.MethodGet, "/api/session/export", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode export: %v", err)
	}

	var exported struct {
		Inputs ratios.FinancialInputs `yaml:"inputs"`
	}
	if err := yaml.Unmarshal([]byte(payload["configYaml"]), &exported); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	want := testutil.BaselineInputs()
	want.Inventory = 1234
	if exported.Inputs != want {
		t.Errorf("expected exported %+v, got %+v", want, exported.Inputs)
	}
}

func TestStatelessRatios(t *testing.T) {
	handler := newTestHandler(0)

	for _, sc := range testutil.Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			body, err := json.Marshal(sc.Inputs)
			if err != nil {
				t.Fatalf("failed to marshal inputs: %v", err)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/ratios", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("expected stateless endpoint not to set cookies")
			}
			state := decodeState(t, rec)
			if state.Ratios != ratios.Compute(sc.Inputs) {
				t.Errorf("expected %+v, got %+v", ratios.Compute(sc.Inputs), state.Ratios)
			}
			testutil.AssertFinite(t, state.Ratios)
		})
	}
}

func TestRequestTooLarge(t *testing.T) {
	handler := newTestHandler(32)

	payload := `{"field":"revenue","value":"` + strings.Repeat("9", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/session/field", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if !strings.Contains(resp["error"], "32 bytes") {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(0)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/"},
		{http.MethodPost, "/api/session"},
		{http.MethodGet, "/api/session/inputs"},
		{http.MethodGet, "/api/session/reset"},
		{http.MethodPost, "/api/session/export"},
		{http.MethodGet, "/api/ratios"},
		{http.MethodPost, "/api/version"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tt.method, tt.path, rec.Code)
		}
	}
}

func TestVersionEndpoint(t *testing.T) {
	handler := newTestHandler(0)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode version: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", resp["version"])
	}
}

func TestBarPercent(t *testing.T) {
	bars := []dashboard.Bar{{Value: 2}, {Value: 4}}
	if got := barPercent(bars, 2); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
	if got := barPercent(bars, -1); got != 0 {
		t.Errorf("expected negative bars to be empty, got %v", got)
	}
	if got := barPercent([]dashboard.Bar{{Value: 0}}, 0); got != 0 {
		t.Errorf("expected 0 for an empty chart, got %v", got)
	}
}
