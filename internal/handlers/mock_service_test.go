package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"opensoak/internal/engine"
	"opensoak/internal/models"
	"opensoak/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockControl struct {
	state     models.DesiredState
	err       error
	lastPatch models.TogglePatch
	lastSoak  service.SoakParams
	cancels   int
}

func (m *mockControl) UpdateToggles(ctx context.Context, p models.TogglePatch) (models.DesiredState, error) {
	m.lastPatch = p
	return m.state, m.err
}
func (m *mockControl) StartSoak(ctx context.Context, p service.SoakParams) (models.DesiredState, error) {
	m.lastSoak = p
	return m.state, m.err
}
func (m *mockControl) CancelSoak(ctx context.Context) (models.DesiredState, error) {
	m.cancels++
	return m.state, m.err
}

type mockSettings struct {
	settings  models.Settings
	err       error
	lastPatch models.SettingsPatch
}

func (m *mockSettings) Get(ctx context.Context) (models.Settings, error) {
	return m.settings, m.err
}
func (m *mockSettings) Update(ctx context.Context, p models.SettingsPatch) (models.Settings, error) {
	m.lastPatch = p
	return m.settings, m.err
}

type mockMonitoring struct {
	status    service.Status
	err       error
	samples   []models.TemperatureSample
	lastLimit int
}

func (m *mockMonitoring) GetStatus(ctx context.Context) (service.Status, error) {
	return m.status, m.err
}
func (m *mockMonitoring) History(ctx context.Context, limit int) ([]models.TemperatureSample, error) {
	m.lastLimit = limit
	return m.samples, m.err
}

type mockEventLog struct {
	resp     []models.UsageEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.UsageEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockTelemetry struct {
	events    []models.ThermalEvent
	report    service.EnergyReport
	err       error
	lastType  string
	lastLimit int
	lastFrom  time.Time
	lastTo    time.Time
}

func (m *mockTelemetry) ThermalEvents(ctx context.Context, typ string, limit int) ([]models.ThermalEvent, error) {
	m.lastType = typ
	m.lastLimit = limit
	return m.events, m.err
}
func (m *mockTelemetry) Energy(ctx context.Context, from, to time.Time) (service.EnergyReport, error) {
	m.lastFrom = from
	m.lastTo = to
	return m.report, m.err
}

type mockSchedules struct {
	list       []models.Schedule
	created    models.Schedule
	err        error
	lastCreate models.Schedule
	lastDelete int
}

func (m *mockSchedules) List(ctx context.Context) ([]models.Schedule, error) {
	return m.list, m.err
}
func (m *mockSchedules) Create(ctx context.Context, s models.Schedule) (models.Schedule, error) {
	m.lastCreate = s
	return m.created, m.err
}
func (m *mockSchedules) Delete(ctx context.Context, id int) error {
	m.lastDelete = id
	return m.err
}

type mockSafety struct {
	state      engine.FaultState
	err        error
	resets     int
	lastReason string
}

func (m *mockSafety) Reset(ctx context.Context) (engine.FaultState, error) {
	m.resets++
	return m.state, m.err
}
func (m *mockSafety) MasterShutdown(ctx context.Context, reason string) (engine.FaultState, error) {
	m.lastReason = reason
	return m.state, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
