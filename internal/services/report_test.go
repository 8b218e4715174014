package services

import (
  "context"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/clients/openai"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
)

type fakeAI struct {
  configured bool
  responses  []*openai.Completion
  errs       []error
  calls      [][]openai.Message
}

func (f *fakeAI) Configured() bool { return f.configured }

func (f *fakeAI) Complete(ctx context.Context, messages []openai.Message) (*openai.Completion, error) {
  idx := len(f.calls)
  f.calls = append(f.calls, messages)
  if idx < len(f.errs) && f.errs[idx] != nil {
    return nil, f.errs[idx]
  }
  if idx < len(f.responses) {
    return f.responses[idx], nil
  }
  return &openai.Completion{Content: "<p>reading</p>"}, nil
}

func userTextOf(t *testing.T, messages []openai.Message) string {
  t.Helper()
  require.Len(t, messages, 2)
  parts, ok := messages[1].Content.([]openai.ContentPart)
  require.True(t, ok)
  require.NotEmpty(t, parts)
  return parts[0].Text
}

func TestGenerateRequiresAPIKey(t *testing.T) {
  svc := NewReportService(logger.NewNop(), &fakeAI{configured: false}, ReportConfig{})

  _, err := svc.Generate(context.Background(), ReportUserData{Name: "Ana"}, TopicGeneral)
  assert.ErrorIs(t, err, ErrReportNotConfigured)
}

func TestGenerateStripsFencesAndAppendsButtons(t *testing.T) {
  ai := &fakeAI{
    configured: true,
    responses:  []*openai.Completion{{Content: "```html\n<p>mystic</p>\n```", ContextID: "resp_1"}},
  }
  svc := NewReportService(logger.NewNop(), ai, ReportConfig{})

  result, err := svc.Generate(context.Background(), ReportUserData{Name: "Ana", Gender: "female"}, TopicGeneral)
  require.NoError(t, err)
  assert.Contains(t, result.HTML, "<p>mystic</p>")
  assert.NotContains(t, result.HTML, "```")
  assert.Contains(t, result.HTML, `data-context-id="resp_1"`)
  assert.Contains(t, result.HTML, "btn-topic-love")
  require.NotNil(t, result.ContextID)
  assert.Equal(t, "resp_1", *result.ContextID)
  assert.NotContains(t, result.HTML, "intro-message", "CTA is intro-only")
}

func TestGenerateIntroAppendsCTA(t *testing.T) {
  ai := &fakeAI{
    configured: true,
    responses:  []*openai.Completion{{Content: "<p>teaser</p>", ContextID: "resp_2"}},
  }
  svc := NewReportService(logger.NewNop(), ai, ReportConfig{})

  result, err := svc.Generate(context.Background(), ReportUserData{Name: "Ana"}, TopicIntro)
  require.NoError(t, err)
  assert.Contains(t, result.HTML, "intro-message")
  assert.Contains(t, result.HTML, "report-buttons")
}

func TestGenerateRefusalRetriesOnceWithoutImage(t *testing.T) {
  ai := &fakeAI{
    configured: true,
    responses: []*openai.Completion{
      {Content: "I'm sorry, I can't help with that.", ContextID: "resp_refused"},
      {Content: "<p>text only reading</p>", ContextID: "resp_retry"},
    },
  }
  svc := NewReportService(logger.NewNop(), ai, ReportConfig{})

  result, err := svc.Generate(context.Background(), ReportUserData{
    Name:      "Ana",
    PalmImage: "data:image/jpeg;base64,AAAA",
  }, TopicLove)
  require.NoError(t, err)
  require.Len(t, ai.calls, 2)

  // First call carries the image, retry does not.
  firstParts := ai.calls[0][1].Content.([]openai.ContentPart)
  require.Len(t, firstParts, 2)
  assert.NotNil(t, firstParts[1].ImageURL)
  retryParts := ai.calls[1][1].Content.([]openai.ContentPart)
  require.Len(t, retryParts, 1)

  // Retry is pinned to the general template regardless of requested topic,
  // and the context id stays bound to the first call.
  assert.Contains(t, userTextOf(t, ai.calls[1]), "general report")

  assert.Contains(t, result.HTML, "text only reading")
  require.NotNil(t, result.ContextID)
  assert.Equal(t, "resp_refused", *result.ContextID)
}

func TestGenerateRetriesExactlyOnce(t *testing.T) {
  ai := &fakeAI{
    configured: true,
    responses: []*openai.Completion{
      {Content: "Sorry, I cannot do this."},
      {Content: "sorry again"},
    },
  }
  svc := NewReportService(logger.NewNop(), ai, ReportConfig{})

  result, err := svc.Generate(context.Background(), ReportUserData{Name: "Ana"}, TopicGeneral)
  require.NoError(t, err)
  assert.Len(t, ai.calls, 2, "exactly one retry")
  assert.Contains(t, result.HTML, "sorry again", "retry output is trusted as-is")
}

func TestGenerateCollapsesDuplicatedImagePrefix(t *testing.T) {
  ai := &fakeAI{
    configured: true,
    responses:  []*openai.Completion{{Content: "<p>ok</p>"}},
  }
  svc := NewReportService(logger.NewNop(), ai, ReportConfig{})

  _, err := svc.Generate(context.Background(), ReportUserData{
    Name:      "Ana",
    PalmImage: "data:image/png;base64,data:image/jpeg;base64,AAAA",
  }, TopicGeneral)
  require.NoError(t, err)

  parts := ai.calls[0][1].Content.([]openai.ContentPart)
  require.Len(t, parts, 2)
  assert.Equal(t, "data:image/jpeg;base64,AAAA", parts[1].ImageURL.URL)
  assert.Equal(t, "high", parts[1].ImageURL.Detail)
}

func TestGenerateDefaultsNameAndGender(t *testing.T) {
  ai := &fakeAI{
    configured: true,
    responses:  []*openai.Completion{{Content: "<p>ok</p>"}},
  }
  svc := NewReportService(logger.NewNop(), ai, ReportConfig{})

  _, err := svc.Generate(context.Background(), ReportUserData{Name: "  <b>  </b> "}, TopicGeneral)
  require.NoError(t, err)

  text := userTextOf(t, ai.calls[0])
  assert.Contains(t, text, "Seeker (unspecified)")
}

func TestGenerateTransportErrorFallsBackThenFails(t *testing.T) {
  ai := &fakeAI{
    configured: true,
    errs:       []error{assert.AnError, assert.AnError},
  }
  svc := NewReportService(logger.NewNop(), ai, ReportConfig{})

  _, err := svc.Generate(context.Background(), ReportUserData{Name: "Ana"}, TopicGeneral)
  assert.ErrorIs(t, err, ErrNoReportContent)
  assert.Len(t, ai.calls, 2)
}
