package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/silent_signal_system/internal/auth"
	"github.com/shenikar/silent_signal_system/internal/config"
	"github.com/shenikar/silent_signal_system/internal/hub"
	"github.com/shenikar/silent_signal_system/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	alertService service.AlertService
	stream       service.StateProvider
	authProvider auth.Provider
	sessions     auth.SessionStore
	hub          *hub.Manager
	logger       *logrus.Logger
	validate     *validator.Validate
	cfg          *config.Config
}

func NewHandler(
	alertService service.AlertService,
	stream service.StateProvider,
	authProvider auth.Provider,
	sessions auth.SessionStore,
	hubManager *hub.Manager,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		alertService: alertService,
		stream:       stream,
		authProvider: authProvider,
		sessions:     sessions,
		hub:          hubManager,
		logger:       logger,
		validate:     validator.New(),
		cfg:          cfg,
	}
}

// @Summary Submit an emergency alert
// @Description Submit a new emergency alert from the reporter form. The zone is taken from the room query parameter.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param room query string false "Zone label, underscores are rendered as spaces"
// @Param report body ReportRequest true "Alert submission request"
// @Success 201 {object} ReportResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /report [post]
func (h *Handler) submitReport(c *gin.Context) {
	var input ReportRequest
	log := h.logger.WithField("method", "submitReport")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.alertService.Submit(c.Request.Context(), input.Type, input.Note, c.Query("room"))
	if err != nil {
		log.WithError(err).Error("Failed to submit alert in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, ReportResponse{
		ID:       alert.ID,
		Type:     alert.Type,
		Location: alert.Location,
		Status:   alert.Status,
	})
}

// @Summary Resolve an alert
// @Description Mark an alert as resolved. Safe to call twice: the second call writes the same terminal state.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 "OK"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id}/resolve [post]
func (h *Handler) resolveAlert(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "resolveAlert").WithField("id", id)

	if err := h.alertService.Resolve(c.Request.Context(), id); err != nil {
		log.WithError(err).Error("Failed to resolve alert in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve alert"})
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Get dashboard state
// @Description Get the full rendered dashboard view: active alert cards, history rows, counters and the alarm flag.
// @Tags Dashboard
// @Accept json
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /dashboard/state [get]
func (h *Handler) getDashboardState(c *gin.Context) {
	c.JSON(http.StatusOK, StateToDashboardResponse(h.stream.State()))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
