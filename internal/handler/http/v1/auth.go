package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/silent_signal_system/internal/auth"
)

const sessionCookieName = "silentsignal_session"

// Сообщения об ошибках входа по категориям провайдера
const (
	msgInvalidCredentials  = "Access Denied: Invalid Security Credentials."
	msgTooManyAttempts     = "Security Lockout: Too many failed attempts. Try later."
	msgProviderUnreachable = "System Error: Unable to reach authentication server."
)

// @Summary Operator sign-in
// @Description Authenticate an operator against the external identity provider and start a session.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Operator credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 429 {object} map[string]string "Too many failed attempts"
// @Failure 502 {object} map[string]string "Identity provider unreachable"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")

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

	user, err := h.authProvider.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		log.WithError(err).Warn("Sign-in rejected by identity provider")
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		case errors.Is(err, auth.ErrTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": msgTooManyAttempts})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": msgProviderUnreachable})
		}
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), user)
	if err != nil {
		log.WithError(err).Error("Failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.SetCookie(sessionCookieName, session.ID, int(h.cfg.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, SessionResponse{Email: session.Email})
}

// @Summary Terminate the operator session
// @Description Sign the operator out. Session store failures are logged and never block the sign-out.
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Signed out"
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	log := h.logger.WithField("method", "logout")

	if sessionID, err := c.Cookie(sessionCookieName); err == nil && sessionID != "" {
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			// Выход не блокируем: кука все равно удаляется
			log.WithError(err).Error("Failed to delete session")
		}
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

// @Summary Get current session
// @Description Return the active operator session, if any. The login page uses this to redirect authenticated operators to the dashboard.
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]string "No active session"
// @Router /auth/session [get]
func (h *Handler) getSession(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Email: session.Email})
}

// SessionAuthMiddleware закрывает защищенные маршруты: запрос без валидной
// сессии получает ровно один 401, по которому браузерная оболочка уводит
// пользователя на страницу входа
func (h *Handler) SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := h.lookupSession(c)
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set("session", session)
		c.Next()
	}
}

func (h *Handler) lookupSession(c *gin.Context) *auth.Session {
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil || sessionID == "" {
		return nil
	}

	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up session")
		return nil
	}
	return session
}
