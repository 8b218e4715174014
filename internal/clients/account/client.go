package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/utils"
)

var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInsufficientCredits = errors.New("not enough credits")
)

// Client talks to the Soul Mirror account service: it resolves the bearer
// credential into an account identity and debits report credits.
type Client interface {
	ValidateToken(token string) (*User, error)
	UseCredit(ctx context.Context, userID, topic string, amount int) error
}

type User struct {
	ID    string
	Email string
}

type Config struct {
	JWTSecret string
	BaseURL   string
	Timeout   time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("SM_ACCOUNT_TIMEOUT_SECONDS", 20, log)
	return Config{
		JWTSecret: strings.TrimSpace(os.Getenv("SM_JWT_SECRET")),
		BaseURL:   strings.TrimSpace(os.Getenv("SM_ACCOUNT_BASE_URL")),
		Timeout:   time.Duration(timeoutSec) * time.Second,
	}
}

func New(log *logger.Logger, cfg Config) Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &client{
		log:        log.With("client", "AccountClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken verifies the HS256 credential issued by the account service
// and returns the identity it carries. Any parse or expiry failure maps to
// ErrInvalidToken so callers can redirect to login uniformly.
func (c *client) ValidateToken(token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	if c.cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing SM_JWT_SECRET")
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(c.cfg.JWTSecret), nil
	})
	if err != nil {
		c.log.Debug("Token validation failed", "error", err)
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

type useCreditRequest struct {
	UserID string `json:"user_id"`
	Topic  string `json:"topic"`
	Amount int    `json:"amount"`
}

type useCreditResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// UseCredit deducts report credits for the user. A declined debit (out of
// credits) is ErrInsufficientCredits; anything else is an upstream failure.
func (c *client) UseCredit(ctx context.Context, userID, topic string, amount int) error {
	if c.cfg.BaseURL == "" {
		return fmt.Errorf("missing SM_ACCOUNT_BASE_URL")
	}

	payload := useCreditRequest{UserID: userID, Topic: topic, Amount: amount}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/credits/use", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("account service unavailable: %w", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusForbidden {
		return ErrInsufficientCredits
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("account service http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded useCreditResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("account service decode error: %w", err)
	}
	if !decoded.Success {
		return ErrInsufficientCredits
	}
	return nil
}
