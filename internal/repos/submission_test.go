package repos

import (
  "context"
  "testing"
  "time"

  "github.com/glebarez/sqlite"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/types"
)

// The production table relies on uuid_generate_v4, which sqlite does not
// have, so the schema is created by hand here. Create fills the id in Go
// anyway.
const testSchema = `CREATE TABLE holistic_palm_reading (
  id TEXT PRIMARY KEY,
  uuid TEXT NOT NULL,
  module TEXT NOT NULL,
  name TEXT,
  email TEXT,
  gender TEXT,
  answers_json TEXT,
  generated_html TEXT,
  account_id TEXT,
  profile_id TEXT,
  provider_context_id TEXT,
  submitted_at DATETIME NOT NULL
)`

func newTestRepo(t *testing.T) (SubmissionRepo, *gorm.DB) {
  t.Helper()
  db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
  require.NoError(t, err)
  require.NoError(t, db.Exec(testSchema).Error)
  return NewSubmissionRepo(db, logger.NewNop()), db
}

func newSubmission(uuid, email string) *types.Submission {
  return &types.Submission{
    UUID:        uuid,
    Module:      "palm-reading",
    Name:        "Ana",
    Email:       email,
    Gender:      "female",
    AnswersJSON: `{"hand_shape":"square"}`,
    SubmittedAt: time.Now(),
  }
}

func TestCreateAssignsID(t *testing.T) {
  repo, _ := newTestRepo(t)

  sub := newSubmission("sess-1", "ana@example.com")
  require.NoError(t, repo.Create(context.Background(), nil, sub))
  assert.NotEmpty(t, sub.ID)
}

func TestCreateRejectsMissingFields(t *testing.T) {
  repo, _ := newTestRepo(t)

  err := repo.Create(context.Background(), nil, &types.Submission{UUID: "sess-1"})
  assert.Error(t, err)

  err = repo.Create(context.Background(), nil, &types.Submission{AnswersJSON: "{}"})
  assert.Error(t, err)
}

func TestAttachResultUpdatesAllRowsForUUID(t *testing.T) {
  repo, db := newTestRepo(t)
  ctx := context.Background()

  require.NoError(t, repo.Create(ctx, nil, newSubmission("sess-1", "ana@example.com")))
  require.NoError(t, repo.Create(ctx, nil, newSubmission("sess-1", "ana@example.com")))
  require.NoError(t, repo.Create(ctx, nil, newSubmission("sess-2", "bea@example.com")))

  contextID := "resp_123"
  require.NoError(t, repo.AttachResult(ctx, nil, "sess-1", "<p>done</p>", &contextID))

  var updated int64
  require.NoError(t, db.Model(&types.Submission{}).Where("generated_html <> ''").Count(&updated).Error)
  assert.Equal(t, int64(2), updated)

  var other types.Submission
  require.NoError(t, db.Where("uuid = ?", "sess-2").First(&other).Error)
  assert.Empty(t, other.GeneratedHTML)
}

func TestAttachResultNoMatch(t *testing.T) {
  repo, _ := newTestRepo(t)

  err := repo.AttachResult(context.Background(), nil, "missing", "<p>x</p>", nil)
  assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByEmailCaseInsensitiveEarliestFirst(t *testing.T) {
  repo, _ := newTestRepo(t)
  ctx := context.Background()

  older := newSubmission("sess-1", "Ana@Example.com")
  older.SubmittedAt = time.Now().Add(-time.Hour)
  require.NoError(t, repo.Create(ctx, nil, older))
  require.NoError(t, repo.Create(ctx, nil, newSubmission("sess-2", "ana@example.com")))

  found, err := repo.FindByEmail(ctx, nil, "ANA@EXAMPLE.COM")
  require.NoError(t, err)
  require.NotNil(t, found)
  assert.Equal(t, "sess-1", found.UUID)

  missing, err := repo.FindByEmail(ctx, nil, "nobody@example.com")
  require.NoError(t, err)
  assert.Nil(t, missing)
}

func TestFindByContextID(t *testing.T) {
  repo, _ := newTestRepo(t)
  ctx := context.Background()

  sub := newSubmission("sess-1", "ana@example.com")
  require.NoError(t, repo.Create(ctx, nil, sub))
  contextID := "resp_abc"
  require.NoError(t, repo.AttachResult(ctx, nil, "sess-1", "<p>done</p>", &contextID))

  found, err := repo.FindByContextID(ctx, nil, "resp_abc")
  require.NoError(t, err)
  require.NotNil(t, found)
  assert.Equal(t, "sess-1", found.UUID)

  none, err := repo.FindByContextID(ctx, nil, "")
  require.NoError(t, err)
  assert.Nil(t, none)
}

func TestHasCompletedReport(t *testing.T) {
  repo, _ := newTestRepo(t)
  ctx := context.Background()

  require.NoError(t, repo.Create(ctx, nil, newSubmission("sess-1", "ana@example.com")))

  done, err := repo.HasCompletedReport(ctx, nil, "ana@example.com", "palm-reading")
  require.NoError(t, err)
  assert.False(t, done, "row without generated html does not consume the trial")

  require.NoError(t, repo.AttachResult(ctx, nil, "sess-1", "<p>done</p>", nil))

  done, err = repo.HasCompletedReport(ctx, nil, "ANA@example.com", "palm-reading")
  require.NoError(t, err)
  assert.True(t, done)

  done, err = repo.HasCompletedReport(ctx, nil, "ana@example.com", "other-module")
  require.NoError(t, err)
  assert.False(t, done, "trial is scoped per module")
}
