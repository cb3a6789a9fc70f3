package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// TokenProvider supplies the bearer credential for backend calls.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Manager caches the bearer token and refreshes it shortly before
// expiry. Every acquisition is bounded by the configured auth timeout so
// a hung credential endpoint cannot stall the engine.
type Manager struct {
	cfg       *config.Config
	client    *http.Client
	token     string
	expiresAt time.Time
	mu        sync.RWMutex
	log       zerolog.Logger
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Backend.AuthTimeout,
		},
		log: logger.Component("auth"),
	}
}

func (m *Manager) GetToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.token != "" && time.Now().Before(m.expiresAt.Add(-30*time.Second)) {
		token := m.token
		m.mu.RUnlock()
		return token, nil
	}
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Backend.AuthTimeout)
	defer cancel()

	token, err := m.refreshToken(ctx)
	if err != nil {
		return "", errors.NewAuthError(err)
	}
	return token, nil
}

func (m *Manager) refreshToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double check after acquiring write lock
	if m.token != "" && time.Now().Before(m.expiresAt.Add(-30*time.Second)) {
		return m.token, nil
	}

	m.log.Debug().Msg("Refreshing authentication token")

	authData := map[string]string{
		"username": m.cfg.Backend.Username,
		"password": m.cfg.Backend.Password,
	}

	jsonData, err := json.Marshal(authData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth data: %w", err)
	}

	url := m.cfg.Backend.BaseURL + m.cfg.Backend.AuthEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth failed with status: %d", resp.StatusCode)
	}

	var tokenResp model.AuthTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}

	m.token = tokenResp.Token
	m.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	m.log.Debug().Time("expires_at", m.expiresAt).Msg("Token refreshed successfully")

	return m.token, nil
}
