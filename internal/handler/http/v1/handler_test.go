package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/silent_signal_system/internal/auth"
	auth_mocks "github.com/shenikar/silent_signal_system/internal/auth/mocks"
	"github.com/shenikar/silent_signal_system/internal/config"
	"github.com/shenikar/silent_signal_system/internal/hub"
	"github.com/shenikar/silent_signal_system/internal/models"
	"github.com/shenikar/silent_signal_system/internal/service"
	service_mocks "github.com/shenikar/silent_signal_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testMocks struct {
	alertService *service_mocks.MockAlertService
	stream       *service_mocks.MockStateProvider
	authProvider *auth_mocks.MockProvider
	sessions     *auth_mocks.MockSessionStore
}

// newTestHandler создает новый экземпляр Handler с мокированными зависимостями
func newTestHandler(t *testing.T) (testMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)
	m := testMocks{
		alertService: service_mocks.NewMockAlertService(ctrl),
		stream:       service_mocks.NewMockStateProvider(ctrl),
		authProvider: auth_mocks.NewMockProvider(ctrl),
		sessions:     auth_mocks.NewMockSessionStore(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		SessionTTL: 12 * time.Hour,
	}

	handler := NewHandler(m.alertService, m.stream, m.authProvider, m.sessions, hub.NewManager(logger), logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return m, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{Name: sessionCookieName, Value: id}
}

// expectSession настраивает валидную сессию для защищенных маршрутов
func expectSession(m testMocks, id string) {
	m.sessions.EXPECT().
		Get(gomock.Any(), id).
		Return(&auth.Session{ID: id, Email: "operator@example.com"}, nil).
		Times(1)
}

func TestSubmitReport_Success(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := ReportRequest{
		Type: "Medical",
		Note: "second floor",
	}
	expectedAlert := &models.Alert{
		ID:       "alert-1",
		Type:     "Medical",
		Location: "Main Hall",
		Note:     "second floor",
		Status:   models.StatusPending,
	}

	// Зона уходит в сервис сырой, прямо из параметра room
	m.alertService.EXPECT().
		Submit(gomock.Any(), "Medical", "second floor", "Main_Hall").
		Return(expectedAlert, nil).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/report?room=Main_Hall", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp ReportResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "alert-1", resp.ID)
	assert.Equal(t, "Main Hall", resp.Location)
	assert.Equal(t, models.StatusPending, resp.Status)
}

func TestSubmitReport_InvalidJSON(t *testing.T) {
	m, router := newTestHandler(t)

	m.alertService.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/report", bytes.NewBufferString(`{"type": "Medical"`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestSubmitReport_ValidationError(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := ReportRequest{ // Отсутствует Type
		Note: "second floor",
	}

	m.alertService.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/report", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Type' failed on the 'required' tag")
}

func TestSubmitReport_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := ReportRequest{Type: "Medical"}

	m.alertService.EXPECT().
		Submit(gomock.Any(), "Medical", "", "").
		Return(nil, fmt.Errorf("бэкенд недоступен")).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/report", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogin_Success(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := LoginRequest{Email: "operator@example.com", Password: "secret"}
	user := &auth.UserInfo{UserID: "u1", Email: "operator@example.com"}

	m.authProvider.EXPECT().
		SignIn(gomock.Any(), "operator@example.com", "secret").
		Return(user, nil).Times(1)
	m.sessions.EXPECT().
		Create(gomock.Any(), user).
		Return(&auth.Session{ID: "s1", UserID: "u1", Email: "operator@example.com"}, nil).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/auth/login", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), sessionCookieName)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "operator@example.com", resp.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := LoginRequest{Email: "operator@example.com", Password: "wrong"}

	m.authProvider.EXPECT().
		SignIn(gomock.Any(), "operator@example.com", "wrong").
		Return(nil, auth.ErrInvalidCredentials).Times(1)
	m.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/auth/login", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), msgInvalidCredentials)
}

func TestLogin_TooManyAttempts(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := LoginRequest{Email: "operator@example.com", Password: "secret"}

	m.authProvider.EXPECT().
		SignIn(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, auth.ErrTooManyAttempts).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/auth/login", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Security Lockout")
}

func TestLogin_ProviderUnreachable(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := LoginRequest{Email: "operator@example.com", Password: "secret"}

	m.authProvider.EXPECT().
		SignIn(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, auth.ErrProviderUnavailable).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/auth/login", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), msgProviderUnreachable)
}

func TestLogin_ValidationError(t *testing.T) {
	m, router := newTestHandler(t)
	reqBody := LoginRequest{Email: "not-an-email", Password: "secret"}

	m.authProvider.EXPECT().SignIn(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Провайдер не должен вызываться

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/auth/login", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout_DeletesSession(t *testing.T) {
	m, router := newTestHandler(t)

	m.sessions.EXPECT().Delete(gomock.Any(), "s1").Return(nil).Times(1)

	w := makeRequest(router, "POST", "/api/v1/auth/logout", nil, sessionCookie("s1"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogout_StoreErrorDoesNotBlockSignOut(t *testing.T) {
	m, router := newTestHandler(t)

	m.sessions.EXPECT().Delete(gomock.Any(), "s1").Return(fmt.Errorf("redis недоступен")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/auth/logout", nil, sessionCookie("s1"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetSession_Active(t *testing.T) {
	m, router := newTestHandler(t)
	expectSession(m, "s1")

	w := makeRequest(router, "GET", "/api/v1/auth/session", nil, sessionCookie("s1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "operator@example.com")
}

func TestGetSession_NoCookie(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/auth/session", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardState_RequiresSession(t *testing.T) {
	m, router := newTestHandler(t)

	m.stream.EXPECT().State().Times(0) // Состояние не должно отдаваться без сессии

	w := makeRequest(router, "GET", "/api/v1/dashboard/state", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardState_ExpiredSession(t *testing.T) {
	m, router := newTestHandler(t)

	// Истекшая сессия: хранилище отвечает (nil, nil)
	m.sessions.EXPECT().Get(gomock.Any(), "stale").Return(nil, nil).Times(1)
	m.stream.EXPECT().State().Times(0)

	w := makeRequest(router, "GET", "/api/v1/dashboard/state", nil, sessionCookie("stale"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardState_Success(t *testing.T) {
	m, router := newTestHandler(t)
	expectSession(m, "s1")

	resolvedAt := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	state := service.State{
		Active: []*models.Alert{{
			ID:        "a1",
			Type:      "Medical",
			Location:  "Main Hall",
			Status:    models.StatusCritical,
			Escalated: true,
			CreatedAt: time.Now().Add(-3 * time.Minute),
		}},
		History: []*models.Alert{{
			ID:         "h1",
			Type:       "Fire",
			Location:   "Library",
			Status:     models.StatusResolved,
			ResolvedAt: &resolvedAt,
		}},
		Stats:       service.Stats{Total: 2, Pending: 1, TopZone: "Main Hall"},
		AlarmActive: true,
	}
	m.stream.EXPECT().State().Return(state).Times(1)

	w := makeRequest(router, "GET", "/api/v1/dashboard/state", nil, sessionCookie("s1"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.ActiveAlerts, 1)
	assert.Equal(t, "#ef4444", resp.ActiveAlerts[0].SeverityColor)
	assert.Equal(t, "🚑", resp.ActiveAlerts[0].Icon)
	assert.True(t, resp.ActiveAlerts[0].Escalated)
	require.Len(t, resp.History, 1)
	assert.Equal(t, "Library", resp.History[0].Location)
	assert.True(t, resp.AlarmActive)
	assert.Equal(t, "Main Hall", resp.Stats.TopZone)
}

func TestResolveAlert_Success(t *testing.T) {
	m, router := newTestHandler(t)
	expectSession(m, "s1")

	m.alertService.EXPECT().Resolve(gomock.Any(), "a1").Return(nil).Times(1)

	w := makeRequest(router, "POST", "/api/v1/alerts/a1/resolve", nil, sessionCookie("s1"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResolveAlert_RequiresSession(t *testing.T) {
	m, router := newTestHandler(t)

	m.alertService.EXPECT().Resolve(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/alerts/a1/resolve", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResolveAlert_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)
	expectSession(m, "s1")

	m.alertService.EXPECT().Resolve(gomock.Any(), "a1").Return(fmt.Errorf("документ не найден")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/alerts/a1/resolve", nil, sessionCookie("s1"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
