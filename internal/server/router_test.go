package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/banrai-farm/duriantrack/backend/internal/auth"
	"github.com/banrai-farm/duriantrack/backend/internal/database"
	"github.com/banrai-farm/duriantrack/backend/internal/farm"
	"github.com/banrai-farm/duriantrack/backend/internal/yield"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerFixture struct {
	handler http.Handler
	token   string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "router_test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	ids := &sequenceIDGenerator{}
	farmService, err := farm.NewService(farm.ServiceConfig{
		Database:   db,
		IDProvider: ids,
	})
	if err != nil {
		t.Fatalf("build farm service: %v", err)
	}

	tokens := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("router-test-secret"),
		Issuer:        "duriantrack-backend",
		Audience:      "duriantrack-clients",
		AdminUsername: "admin",
		AdminPassword: "orchard-password",
	})

	handler, err := NewHTTPHandler(Dependencies{
		FarmService: farmService,
		Tokens:      tokens,
		Extractor:   yield.NewExtractor(yield.DefaultThaiLocale()),
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	fixture := &routerFixture{handler: handler}
	fixture.token = fixture.login(t, "admin", "orchard-password")
	return fixture
}

type sequenceIDGenerator struct {
	counter int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.counter++
	return fmt.Sprintf("router-id-%d", g.counter), nil
}

func (f *routerFixture) do(t *testing.T, method, path string, body interface{}, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if authorized {
		request.Header.Set("Authorization", "Bearer "+f.token)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, request)
	return recorder
}

func (f *routerFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	recorder := f.do(t, http.MethodPost, "/auth/login",
		map[string]string{"username": username, "password": password}, false)
	if recorder.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var response struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if response.TokenType != "Bearer" || response.AccessToken == "" {
		t.Fatalf("unexpected login response: %s", recorder.Body.String())
	}
	return response.AccessToken
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
}

func TestHealthEndpointIsPublic(t *testing.T) {
	fixture := newRouterFixture(t)
	recorder := fixture.do(t, http.MethodGet, "/healthz", nil, false)
	if recorder.Code != http.StatusOK {
		t.Fatalf("healthz returned %d", recorder.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	fixture := newRouterFixture(t)

	recorder := fixture.do(t, http.MethodGet, "/plots", nil, false)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated request returned %d, expected 401", recorder.Code)
	}

	request := httptest.NewRequest(http.MethodGet, "/plots", nil)
	request.Header.Set("Authorization", "Bearer not-a-token")
	recorder = httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token returned %d, expected 401", recorder.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	fixture := newRouterFixture(t)
	recorder := fixture.do(t, http.MethodPost, "/auth/login",
		map[string]string{"username": "admin", "password": "wrong"}, false)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials returned %d, expected 401", recorder.Code)
	}
}

func TestPlotSectionTreeLifecycle(t *testing.T) {
	fixture := newRouterFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/plots",
		map[string]string{"code": "a", "name": "North Field", "area_rai": "12.5"}, true)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create plot returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var plot struct {
		ID      string  `json:"id"`
		Code    string  `json:"code"`
		AreaRai *string `json:"area_rai"`
	}
	decodeBody(t, recorder, &plot)
	if plot.Code != "A" {
		t.Fatalf("plot code = %q, expected normalized A", plot.Code)
	}
	if plot.AreaRai == nil || *plot.AreaRai != "12.50" {
		t.Fatalf("plot area = %v, expected 12.50", plot.AreaRai)
	}

	recorder = fixture.do(t, http.MethodGet, "/plots/"+plot.ID+"/sections/next-code", nil, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("next section code returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var preview struct {
		SectionCode string `json:"section_code"`
	}
	decodeBody(t, recorder, &preview)
	if preview.SectionCode != "A1" {
		t.Fatalf("section code preview = %q, expected A1", preview.SectionCode)
	}

	recorder = fixture.do(t, http.MethodPost, "/plots/"+plot.ID+"/sections",
		map[string]string{"name": "Riverside"}, true)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create section returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var section struct {
		ID          string `json:"id"`
		SectionCode string `json:"section_code"`
	}
	decodeBody(t, recorder, &section)
	if section.SectionCode != "A1" {
		t.Fatalf("section code = %q, expected A1", section.SectionCode)
	}

	recorder = fixture.do(t, http.MethodPost, "/sections/"+section.ID+"/trees",
		map[string]string{"variety": "หมอนทอง"}, true)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create tree returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var tree struct {
		ID       string `json:"id"`
		TreeCode string `json:"tree_code"`
		Status   string `json:"status"`
	}
	decodeBody(t, recorder, &tree)
	if tree.TreeCode != "A1-T1" {
		t.Fatalf("tree code = %q, expected A1-T1", tree.TreeCode)
	}
	if tree.Status != "alive" {
		t.Fatalf("tree status = %q, expected alive", tree.Status)
	}

	recorder = fixture.do(t, http.MethodDelete, "/sections/"+section.ID, nil, true)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("deleting populated section returned %d, expected 400", recorder.Code)
	}

	recorder = fixture.do(t, http.MethodDelete, "/trees/"+tree.ID, nil, true)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete tree returned %d: %s", recorder.Code, recorder.Body.String())
	}
	recorder = fixture.do(t, http.MethodDelete, "/sections/"+section.ID, nil, true)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete emptied section returned %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestDuplicatePlotCodeReturnsConflict(t *testing.T) {
	fixture := newRouterFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/plots",
		map[string]string{"code": "A", "name": "North Field"}, true)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create plot returned %d", recorder.Code)
	}
	recorder = fixture.do(t, http.MethodPost, "/plots",
		map[string]string{"code": "A", "name": "Impostor"}, true)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate plot returned %d, expected 409: %s", recorder.Code, recorder.Body.String())
	}
}

func TestUnknownTreeReturnsNotFound(t *testing.T) {
	fixture := newRouterFixture(t)
	recorder := fixture.do(t, http.MethodGet, "/trees/missing", nil, true)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unknown tree returned %d, expected 404: %s", recorder.Code, recorder.Body.String())
	}
}

func TestFruitCountAdjustmentFeedsYieldAnalytics(t *testing.T) {
	fixture := newRouterFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/plots",
		map[string]string{"code": "A", "name": "North Field"}, true)
	var plot struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &plot)

	recorder = fixture.do(t, http.MethodPost, "/plots/"+plot.ID+"/sections", map[string]string{}, true)
	var section struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &section)

	recorder = fixture.do(t, http.MethodPost, "/sections/"+section.ID+"/trees",
		map[string]string{"variety": "หมอนทอง"}, true)
	var tree struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &tree)

	recorder = fixture.do(t, http.MethodPost, "/trees/"+tree.ID+"/fruit-count",
		map[string]interface{}{"delta": 15}, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("fruit count increase returned %d: %s", recorder.Code, recorder.Body.String())
	}
	recorder = fixture.do(t, http.MethodPost, "/trees/"+tree.ID+"/fruit-count",
		map[string]interface{}{"delta": -5, "reason": "ลูกร่วง"}, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("fruit count decrease returned %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = fixture.do(t, http.MethodPost, "/trees/"+tree.ID+"/fruit-count",
		map[string]interface{}{"delta": -100}, true)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("negative fruit count returned %d, expected 400: %s", recorder.Code, recorder.Body.String())
	}

	recorder = fixture.do(t, http.MethodGet, "/trees/"+tree.ID+"/yield/analytics?period=last_7_days", nil, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("yield analytics returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var analytics yield.YieldAnalytics
	decodeBody(t, recorder, &analytics)
	if analytics.TotalEvents != 2 {
		t.Fatalf("analytics events = %d, expected 2", analytics.TotalEvents)
	}
	if analytics.TotalIncrease != 15 || analytics.TotalDecrease != 5 || analytics.NetChange != 10 {
		t.Fatalf("analytics = +%d/-%d net %d, expected +15/-5 net 10",
			analytics.TotalIncrease, analytics.TotalDecrease, analytics.NetChange)
	}

	recorder = fixture.do(t, http.MethodGet, "/trees/"+tree.ID+"/yield/trend?period=last_7_days", nil, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("yield trend returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var points []yield.YieldTrendPoint
	decodeBody(t, recorder, &points)
	if len(points) != 2 {
		t.Fatalf("trend points = %d, expected 2", len(points))
	}
	if points[len(points)-1].CumulativeYield != 10 {
		t.Fatalf("final cumulative = %d, expected 10", points[len(points)-1].CumulativeYield)
	}
}

func TestYieldAnalyticsRejectsUnknownPeriod(t *testing.T) {
	fixture := newRouterFixture(t)
	recorder := fixture.do(t, http.MethodGet, "/trees/any/yield/analytics?period=fortnight", nil, true)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unknown period returned %d, expected 400", recorder.Code)
	}
}

func TestYieldPeriodsListsPresets(t *testing.T) {
	fixture := newRouterFixture(t)
	recorder := fixture.do(t, http.MethodGet, "/yield/periods", nil, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("yield periods returned %d", recorder.Code)
	}
	var presets []struct {
		Name  string    `json:"name"`
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	decodeBody(t, recorder, &presets)
	if len(presets) != 5 {
		t.Fatalf("got %d periods, expected 5", len(presets))
	}
	for _, preset := range presets {
		if preset.Name == "" || preset.End.Before(preset.Start) {
			t.Fatalf("malformed preset %+v", preset)
		}
	}
}

func TestRegrowFlowThroughAPI(t *testing.T) {
	fixture := newRouterFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/plots",
		map[string]string{"code": "A", "name": "North Field"}, true)
	var plot struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &plot)
	recorder = fixture.do(t, http.MethodPost, "/plots/"+plot.ID+"/sections", map[string]string{}, true)
	var section struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &section)
	recorder = fixture.do(t, http.MethodPost, "/sections/"+section.ID+"/trees",
		map[string]string{"variety": "ก้านยาว"}, true)
	var tree struct {
		ID string `json:"id"`
	}
	decodeBody(t, recorder, &tree)

	recorder = fixture.do(t, http.MethodPost, "/trees/"+tree.ID+"/regrow", nil, true)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("regrowing a living tree returned %d, expected 400", recorder.Code)
	}

	status := "dead"
	recorder = fixture.do(t, http.MethodPut, "/trees/"+tree.ID,
		map[string]*string{"status": &status}, true)
	if recorder.Code != http.StatusOK {
		t.Fatalf("mark dead returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var dead struct {
		DeathDate *time.Time `json:"death_date"`
	}
	decodeBody(t, recorder, &dead)
	if dead.DeathDate == nil {
		t.Fatal("expected death date in response")
	}

	recorder = fixture.do(t, http.MethodPost, "/trees/"+tree.ID+"/regrow", nil, true)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("regrow returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var replacement struct {
		TreeCode string `json:"tree_code"`
		Variety  string `json:"variety"`
	}
	decodeBody(t, recorder, &replacement)
	if replacement.TreeCode != "A1-T2" {
		t.Fatalf("replacement code = %q, expected A1-T2", replacement.TreeCode)
	}
	if replacement.Variety != "ก้านยาว" {
		t.Fatalf("replacement variety = %q", replacement.Variety)
	}
}
