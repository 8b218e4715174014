package mailerlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/backoff"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/utils"
)

// permanentlyUnsubscribedMsg is the exact error string MailerLite returns for
// subscribers that opted out and cannot be re-imported.
const permanentlyUnsubscribedMsg = "This subscriber is unsubscribed and cannot be imported"

type Client interface {
	Sync(ctx context.Context, name, email, uuid string) *SyncResult
}

type Config struct {
	APIKey  string
	GroupID string
	BaseURL string
	Timeout time.Duration

	// ReactivationWait paces the unsubscribe → activate transitions; the
	// remote side needs a moment between status writes.
	ReactivationWait backoff.Waiter
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("MAILERLITE_TIMEOUT_SECONDS", 20, log)
	return Config{
		APIKey:  strings.TrimSpace(os.Getenv("MAILERLITE_API_KEY")),
		GroupID: strings.TrimSpace(os.Getenv("MAILERLITE_GROUP_ID")),
		BaseURL: strings.TrimSpace(os.Getenv("MAILERLITE_BASE_URL")),
		Timeout: time.Duration(timeoutSec) * time.Second,
		ReactivationWait: backoff.Waiter{
			Base: 500 * time.Millisecond,
			Max:  2 * time.Second,
		},
	}
}

func New(log *logger.Logger, cfg Config) Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://connect.mailerlite.com/api"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.ReactivationWait.Base <= 0 {
		cfg.ReactivationWait.Base = 500 * time.Millisecond
	}

	return &client{
		log:        log.With("client", "MailerLiteClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// SyncResult mirrors the step-tagged shape the front end already consumes.
type SyncResult struct {
	Success bool                `json:"success"`
	Step    string              `json:"step"`
	Status  string              `json:"status,omitempty"`
	Company string              `json:"company,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// --- lookup variants, decoded once at the client boundary ---

type lookupKind int

const (
	lookupFound lookupKind = iota
	lookupNotFound
	lookupUnsubscribed
	lookupFailed
)

type lookup struct {
	kind       lookupKind
	subscriber subscriberData
	message    string
	errors     map[string][]string
}

type subscriberData struct {
	Status string `json:"status"`
	Groups []struct {
		ID string `json:"id"`
	} `json:"groups"`
	Fields map[string]any `json:"fields"`
}

func (s subscriberData) company(fallback string) string {
	if v, ok := s.Fields["company"].(string); ok && v != "" {
		return v
	}
	return fallback
}

func (s subscriberData) active() bool {
	return s.Status == "active"
}

// Sync creates, reactivates, or regroups the subscriber record for a lead.
// Existing subscribers always end in exactly the configured group, active,
// with the session uuid stored in the company field.
func (c *client) Sync(ctx context.Context, name, email, uuid string) *SyncResult {
	if c.cfg.APIKey == "" || c.cfg.GroupID == "" {
		c.log.Warn("Missing MailerLite configuration")
		return &SyncResult{Success: false, Step: "config_check", Message: "Missing MailerLite configuration"}
	}

	lu := c.getSubscriber(ctx, email)
	switch lu.kind {
	case lookupNotFound:
		c.log.Info("Subscriber not found, creating", "email", email)
		return c.createSubscriber(ctx, email, name, uuid)
	case lookupUnsubscribed:
		return &SyncResult{Success: false, Step: "lookup", Message: lu.message, Errors: lu.errors}
	case lookupFailed:
		return &SyncResult{Success: false, Step: "lookup", Message: lu.message}
	}

	company := lu.subscriber.company(uuid)

	// Inactive subscribers cannot jump straight to active-with-groups; the
	// remote API wants a clear-then-activate sequence with a pause between
	// writes.
	if !lu.subscriber.active() {
		c.log.Info("Reactivating inactive subscriber", "email", email, "status", lu.subscriber.Status)
		if _, err := c.updateSubscriber(ctx, email, "unsubscribed", []string{}, company); err != nil {
			c.log.Warn("Reactivation unsubscribe step failed", "email", email, "error", err)
		}
		c.cfg.ReactivationWait.Wait(0)
		if _, err := c.updateSubscriber(ctx, email, "active", []string{}, company); err != nil {
			c.log.Warn("Reactivation activate step failed", "email", email, "error", err)
		}
		c.cfg.ReactivationWait.Wait(0)
	}

	if failure, err := c.updateSubscriber(ctx, email, "active", []string{c.cfg.GroupID}, company); err != nil {
		msg := "Unknown error"
		var errs map[string][]string
		if failure != nil {
			if failure.Message != "" {
				msg = failure.Message
			}
			errs = failure.Errors
		} else {
			msg = err.Error()
		}
		return &SyncResult{Success: false, Step: "final_update_failed", Message: msg, Errors: errs}
	}

	return &SyncResult{Success: true, Step: "final_update", Status: "synced", Company: company}
}

func (c *client) getSubscriber(ctx context.Context, email string) lookup {
	status, raw, err := c.do(ctx, http.MethodGet, "/subscribers/"+url.PathEscape(email), nil)
	if err != nil {
		c.log.Warn("MailerLite lookup transport failure", "email", email, "error", err)
		return lookup{kind: lookupFailed, message: err.Error()}
	}
	if status == http.StatusNotFound {
		return lookup{kind: lookupNotFound}
	}

	var body struct {
		Data    subscriberData      `json:"data"`
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if decodeErr := json.Unmarshal(raw, &body); decodeErr != nil {
		return lookup{kind: lookupFailed, message: fmt.Sprintf("mailerlite decode error: %v", decodeErr)}
	}

	if emailErrs := body.Errors["email"]; len(emailErrs) > 0 && emailErrs[0] == permanentlyUnsubscribedMsg {
		return lookup{kind: lookupUnsubscribed, message: permanentlyUnsubscribedMsg, errors: body.Errors}
	}
	if status < 200 || status >= 300 {
		msg := body.Message
		if msg == "" {
			msg = fmt.Sprintf("mailerlite http %d", status)
		}
		return lookup{kind: lookupFailed, message: msg, errors: body.Errors}
	}
	return lookup{kind: lookupFound, subscriber: body.Data}
}

func (c *client) createSubscriber(ctx context.Context, email, name, uuid string) *SyncResult {
	payload := map[string]any{
		"email": email,
		"fields": map[string]string{
			"name":    name,
			"company": uuid,
		},
		"groups": []string{c.cfg.GroupID},
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/subscribers", payload)
	if err != nil {
		return &SyncResult{Success: false, Step: "created_new", Message: err.Error()}
	}

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	_ = json.Unmarshal(raw, &body)

	if status < 200 || status >= 300 {
		msg := body.Message
		if msg == "" {
			msg = "Failed to create subscriber."
		}
		if emailErrs := body.Errors["email"]; len(emailErrs) > 0 && emailErrs[0] == permanentlyUnsubscribedMsg {
			msg = permanentlyUnsubscribedMsg
		}
		return &SyncResult{Success: false, Step: "created_new", Message: msg, Errors: body.Errors}
	}

	return &SyncResult{Success: true, Step: "created_new", Status: "synced", Company: uuid}
}

type updateFailure struct {
	Message string
	Errors  map[string][]string
}

func (c *client) updateSubscriber(ctx context.Context, email, status string, groups []string, company string) (*updateFailure, error) {
	payload := map[string]any{
		"status": status,
		"groups": groups,
	}
	if company != "" {
		payload["fields"] = map[string]string{"company": company}
	}

	httpStatus, raw, err := c.do(ctx, http.MethodPut, "/subscribers/"+url.PathEscape(email), payload)
	if err != nil {
		return nil, err
	}
	if httpStatus >= 200 && httpStatus < 300 {
		return nil, nil
	}

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	_ = json.Unmarshal(raw, &body)
	failure := &updateFailure{Message: body.Message, Errors: body.Errors}
	if failure.Message == "" {
		failure.Message = fmt.Sprintf("mailerlite http %d", httpStatus)
	}
	return failure, fmt.Errorf("mailerlite update failed: %s", failure.Message)
}

// do performs one request and hands back the status code with the raw body.
// MailerLite uses 4xx statuses for domain conditions (404 not-found,
// unsubscribed errors), so non-2xx is not a transport error here.
func (c *client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp.StatusCode, nil, readErr
	}
	return resp.StatusCode, raw, nil
}
