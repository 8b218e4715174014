package services

import (
  "context"
  "errors"
  "fmt"
  "net/url"
  "strings"

  "gorm.io/gorm"

  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/clients/account"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/clients/mailerlite"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/repos"
)

var ErrValidation = errors.New("name and email are required")

// Decision statuses for the two gate phases.
const (
  StatusProceed      = "proceed"
  StatusShowPackages = "show_packages"
  StatusLogin        = "login"
  StatusMustPurchase = "must_purchase"
)

// SubscriberDecision is the pre-answers gate outcome. BlockEmail carries the
// normalized email to stamp into the long-lived block markers; ClearMarkers
// asks the HTTP layer to drop them instead. Cookie IO itself stays out of
// this package.
type SubscriberDecision struct {
  Status       string
  RedirectURL  string
  BlockEmail   string
  ClearMarkers bool
  Sync         *mailerlite.SyncResult
}

// GenerationGrant is the report-phase gate outcome. Topic is the effective,
// server-derived topic and is only meaningful when Status is proceed.
type GenerationGrant struct {
  Status      string
  Topic       string
  RedirectURL string
  PurchaseURL string
  UserID      string
}

type GenerationRequest struct {
  Email      string
  Module     string
  Topic      string
  Token      string
  ReturnPath string
}

type EligibilityService interface {
  CheckSubscriber(ctx context.Context, name, email, uuid string) (*SubscriberDecision, error)
  AuthorizeGeneration(ctx context.Context, req GenerationRequest) (*GenerationGrant, error)
  AuthorizeFollowup(ctx context.Context, token, requestedTopic string) (*GenerationGrant, error)
}

// EligibilityConfig: every redirect is built from one site base URL; the
// same-host and external-host deployments differ only in this value.
type EligibilityConfig struct {
  SiteBaseURL   string
  DefaultModule string
}

type eligibilityService struct {
  db          *gorm.DB
  log         *logger.Logger
  submissions repos.SubmissionRepo
  crm         mailerlite.Client
  accounts    account.Client
  cfg         EligibilityConfig
}

func NewEligibilityService(db *gorm.DB, log *logger.Logger, submissions repos.SubmissionRepo, crm mailerlite.Client, accounts account.Client, cfg EligibilityConfig) EligibilityService {
  serviceLog := log.With("service", "EligibilityService")
  cfg.SiteBaseURL = strings.TrimRight(strings.TrimSpace(cfg.SiteBaseURL), "/")
  if cfg.DefaultModule == "" {
    cfg.DefaultModule = "palm-reading"
  }
  return &eligibilityService{db: db, log: serviceLog, submissions: submissions, crm: crm, accounts: accounts, cfg: cfg}
}

func NormalizeEmail(email string) string {
  return strings.ToLower(strings.TrimSpace(email))
}

// CheckSubscriber is the pre-answers gate: new emails get a CRM sync and a
// clean run at the free intro; known emails are steered to offerings or
// login and their session is marked so future visits re-present the intro
// step until the backend permits progression.
func (es *eligibilityService) CheckSubscriber(ctx context.Context, name, email, uuid string) (*SubscriberDecision, error) {
  if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
    return nil, ErrValidation
  }

  prior, err := es.submissions.FindByEmail(ctx, nil, email)
  if err != nil {
    es.log.Error("Prior submission lookup failed", "email", email, "error", err)
    return nil, fmt.Errorf("submission lookup failed: %w", err)
  }

  norm := NormalizeEmail(email)

  if prior == nil {
    sync := es.crm.Sync(ctx, name, email, uuid)
    if !sync.Success {
      es.log.Warn("MailerLite sync did not complete", "email", email, "step", sync.Step, "message", sync.Message)
    }
    return &SubscriberDecision{Status: StatusProceed, ClearMarkers: true, Sync: sync}, nil
  }

  if !prior.HasAccount() {
    return &SubscriberDecision{
      Status:      StatusShowPackages,
      RedirectURL: es.cfg.SiteBaseURL + "/offerings/?show_access_denied=true",
      BlockEmail:  norm,
    }, nil
  }

  accountID := ""
  if prior.AccountID != nil {
    accountID = *prior.AccountID
  }
  return &SubscriberDecision{
    Status:      StatusLogin,
    RedirectURL: es.cfg.SiteBaseURL + "/login/?account_id=" + url.QueryEscape(accountID),
    BlockEmail:  norm,
  }, nil
}

// AuthorizeGeneration is the report-phase gate. Guests get exactly one free
// intro per email+module; everything else costs one credit and requires a
// valid credential. The client-supplied topic is never trusted as-is.
func (es *eligibilityService) AuthorizeGeneration(ctx context.Context, req GenerationRequest) (*GenerationGrant, error) {
  module := strings.TrimSpace(req.Module)
  if module == "" {
    module = es.cfg.DefaultModule
  }

  // Fail closed: if the lookup errors we assume the free intro was used,
  // otherwise a transient DB error hands out unlimited trials.
  alreadyCompleted, err := es.submissions.HasCompletedReport(ctx, nil, req.Email, module)
  if err != nil {
    es.log.Error("Completed-report lookup failed, denying free intro", "email", req.Email, "module", module, "error", err)
    alreadyCompleted = true
  }

  if strings.TrimSpace(req.Token) == "" {
    if alreadyCompleted {
      return &GenerationGrant{Status: StatusLogin, RedirectURL: es.loginURL(req.ReturnPath)}, nil
    }
    return &GenerationGrant{Status: StatusProceed, Topic: TopicIntro}, nil
  }

  user, err := es.accounts.ValidateToken(req.Token)
  if err != nil {
    if errors.Is(err, account.ErrInvalidToken) {
      return &GenerationGrant{Status: StatusLogin, RedirectURL: es.loginURL(req.ReturnPath)}, nil
    }
    return nil, err
  }

  topic := NormalizePaidTopic(req.Topic)
  if err := es.accounts.UseCredit(ctx, user.ID, topic, 1); err != nil {
    if errors.Is(err, account.ErrInsufficientCredits) {
      return &GenerationGrant{Status: StatusMustPurchase, PurchaseURL: es.cfg.SiteBaseURL + "/offerings/"}, nil
    }
    return nil, err
  }

  return &GenerationGrant{Status: StatusProceed, Topic: topic, UserID: user.ID}, nil
}

// AuthorizeFollowup gates the follow-up buttons: always authenticated,
// always paid, never the intro teaser.
func (es *eligibilityService) AuthorizeFollowup(ctx context.Context, token, requestedTopic string) (*GenerationGrant, error) {
  user, err := es.accounts.ValidateToken(token)
  if err != nil {
    if errors.Is(err, account.ErrInvalidToken) {
      return &GenerationGrant{Status: StatusLogin, RedirectURL: es.loginURL("")}, nil
    }
    return nil, err
  }

  topic := NormalizePaidTopic(requestedTopic)
  if err := es.accounts.UseCredit(ctx, user.ID, topic, 1); err != nil {
    if errors.Is(err, account.ErrInsufficientCredits) {
      return &GenerationGrant{Status: StatusMustPurchase, PurchaseURL: es.cfg.SiteBaseURL + "/offerings/"}, nil
    }
    return nil, err
  }

  return &GenerationGrant{Status: StatusProceed, Topic: topic, UserID: user.ID}, nil
}

func (es *eligibilityService) loginURL(returnPath string) string {
  u := es.cfg.SiteBaseURL + "/login/"
  if returnPath != "" {
    u += "?redirect=" + url.QueryEscape(returnPath)
  }
  return u
}
