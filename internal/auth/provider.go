package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shenikar/silent_signal_system/internal/config"
)

// Ошибки провайдера идентификации. Хендлер сопоставляет каждой
// свою категорию сообщения для пользователя.
var (
	ErrInvalidCredentials  = errors.New("invalid security credentials")
	ErrTooManyAttempts     = errors.New("too many failed attempts")
	ErrProviderUnavailable = errors.New("authentication provider unreachable")
)

// UserInfo - данные аутентифицированного пользователя от провайдера
type UserInfo struct {
	UserID string
	Email  string
}

// Provider определяет контракт внешнего провайдера идентификации.
// Хранение учетных данных полностью на стороне провайдера.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*UserInfo, error)
}

// IdentityToolkitProvider - реализация Provider поверх REST API
// identitytoolkit (email/password sign-in)
type IdentityToolkitProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewIdentityToolkitProvider(cfg *config.Config) *IdentityToolkitProvider {
	return &IdentityToolkitProvider{
		endpoint: cfg.AuthEndpoint,
		apiKey:   cfg.AuthAPIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn выполняет вход по email и паролю через внешнего провайдера
func (p *IdentityToolkitProvider) SignIn(ctx context.Context, email, password string) (*UserInfo, error) {
	payload, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign-in request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", p.endpoint, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var body signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response", ErrProviderUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapProviderError(&body)
	}

	return &UserInfo{UserID: body.LocalID, Email: body.Email}, nil
}

// mapProviderError сопоставляет код ошибки провайдера с ошибкой уровня сервиса
func mapProviderError(body *signInResponse) error {
	if body.Error == nil {
		return ErrProviderUnavailable
	}
	msg := body.Error.Message
	switch {
	case strings.HasPrefix(msg, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(msg, "INVALID_PASSWORD"),
		strings.HasPrefix(msg, "EMAIL_NOT_FOUND"):
		return ErrInvalidCredentials
	case strings.HasPrefix(msg, "TOO_MANY_ATTEMPTS_TRY_LATER"):
		return ErrTooManyAttempts
	default:
		return fmt.Errorf("%w: %s", ErrProviderUnavailable, msg)
	}
}
