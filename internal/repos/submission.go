package repos

import (
  "context"
  "errors"
  "strings"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/types"
)

var ErrNotFound = errors.New("submission not found")

type SubmissionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, submission *types.Submission) error
  AttachResult(ctx context.Context, tx *gorm.DB, uuid, html string, providerContextID *string) error
  FindByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Submission, error)
  FindByContextID(ctx context.Context, tx *gorm.DB, contextID string) (*types.Submission, error)
  HasCompletedReport(ctx context.Context, tx *gorm.DB, email, module string) (bool, error)
}

type submissionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
  repoLog := baseLog.With("repo", "SubmissionRepo")
  return &submissionRepo{db: db, log: repoLog}
}

func (sr *submissionRepo) Create(ctx context.Context, tx *gorm.DB, submission *types.Submission) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if submission == nil || submission.UUID == "" || submission.AnswersJSON == "" {
    return errors.New("invalid submission: uuid and answers are required")
  }
  if submission.ID == "" {
    submission.ID = uuid.NewString()
  }

  return transaction.WithContext(ctx).Create(submission).Error
}

// AttachResult sets the generated HTML and provider context id on every row
// carrying the session uuid. Reports a failure when no row matched.
func (sr *submissionRepo) AttachResult(ctx context.Context, tx *gorm.DB, uuid, html string, providerContextID *string) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  res := transaction.WithContext(ctx).
    Model(&types.Submission{}).
    Where("uuid = ?", uuid).
    Updates(map[string]interface{}{
      "generated_html":      html,
      "provider_context_id": providerContextID,
    })
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    return ErrNotFound
  }
  return nil
}

// FindByEmail returns the earliest submission row matching the email
// case-insensitively, or nil when none exists.
func (sr *submissionRepo) FindByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Submission, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  norm := strings.ToLower(strings.TrimSpace(email))
  if norm == "" {
    return nil, nil
  }

  var result types.Submission
  err := transaction.WithContext(ctx).
    Where("LOWER(email) = ?", norm).
    Order("submitted_at asc").
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (sr *submissionRepo) FindByContextID(ctx context.Context, tx *gorm.DB, contextID string) (*types.Submission, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if strings.TrimSpace(contextID) == "" {
    return nil, nil
  }

  var result types.Submission
  err := transaction.WithContext(ctx).
    Where("provider_context_id = ?", contextID).
    Order("submitted_at desc").
    First(&result).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

// HasCompletedReport is the free-intro gate: true iff any row for the module
// and case-insensitive email already carries generated HTML. Read-only.
func (sr *submissionRepo) HasCompletedReport(ctx context.Context, tx *gorm.DB, email, module string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  norm := strings.ToLower(strings.TrimSpace(email))
  if norm == "" {
    return false, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Submission{}).
    Where("module = ?", module).
    Where("LOWER(email) = ?", norm).
    Where("generated_html IS NOT NULL AND generated_html <> ''").
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}
