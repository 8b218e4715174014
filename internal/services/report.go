package services

import (
  "context"
  "errors"
  "fmt"
  "html"
  "regexp"
  "strings"

  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/clients/openai"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
)

var (
  ErrReportNotConfigured = errors.New("missing OpenAI API key")
  ErrNoReportContent     = errors.New("No response from OpenAI.")
)

const systemPrompt = "You are a mystical palm reader… warm, curious, full of wonder."

const defaultIntroCTA = `<p class="intro-message">
    <strong>✨ Want to know more? Unveil hidden fortunes &amp; aura secrets — unlock 5 insights &amp; continue your journey.</strong>
</p>`

type ReportService interface {
  Generate(ctx context.Context, user ReportUserData, topic string) (*ReportResult, error)
}

type ReportUserData struct {
  Name      string
  Gender    string
  Answers   AnswerList
  PalmImage string
}

type ReportResult struct {
  HTML      string
  ContextID *string
}

// ReportConfig carries the service-level knobs; the provider transport knobs
// live on the OpenAI client config.
type ReportConfig struct {
  // IntroCTAHTML overrides the fragment appended to intro reports. The
  // fragment is composed server-side and never sent to the model.
  IntroCTAHTML string
}

type reportService struct {
  log *logger.Logger
  ai  openai.Client
  cfg ReportConfig
}

func NewReportService(log *logger.Logger, ai openai.Client, cfg ReportConfig) ReportService {
  serviceLog := log.With("service", "ReportService")
  if strings.TrimSpace(cfg.IntroCTAHTML) == "" {
    cfg.IntroCTAHTML = defaultIntroCTA
  }
  return &reportService{log: serviceLog, ai: ai, cfg: cfg}
}

var (
  imagePrefixRe = regexp.MustCompile(`^(data:image/[a-z]+;base64,)+`)
  codeFenceRe   = regexp.MustCompile("```html|```")
  tagRe         = regexp.MustCompile(`<[^>]*>`)
  spaceRe       = regexp.MustCompile(`\s+`)
)

// sanitizeText flattens a user-supplied field to a single plain-text line.
func sanitizeText(s string) string {
  s = tagRe.ReplaceAllString(s, "")
  s = strings.Map(func(r rune) rune {
    if r < 32 || r == 127 {
      return ' '
    }
    return r
  }, s)
  return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// normalizeImagePayload collapses any stack of duplicated data-URL prefixes
// (an upstream double-encoding bug) down to one canonical jpeg prefix.
func normalizeImagePayload(image string) string {
  if image == "" || !strings.Contains(image, "data:image") {
    return image
  }
  return imagePrefixRe.ReplaceAllString(image, "data:image/jpeg;base64,")
}

func stripFences(s string) string {
  return strings.TrimSpace(codeFenceRe.ReplaceAllString(s, ""))
}

// looksLikeRefusal is the cheap textual check for the model declining to
// read the palm image.
func looksLikeRefusal(s string) bool {
  lower := strings.ToLower(s)
  return strings.Contains(lower, "sorry") ||
    strings.Contains(lower, "can't help") ||
    strings.Contains(lower, "can’t help")
}

func (rs *reportService) Generate(ctx context.Context, user ReportUserData, topic string) (*ReportResult, error) {
  if !rs.ai.Configured() {
    return nil, ErrReportNotConfigured
  }

  name := sanitizeText(user.Name)
  if name == "" {
    name = "Seeker"
  }
  gender := sanitizeText(user.Gender)
  if gender == "" {
    gender = "unspecified"
  }
  image := normalizeImagePayload(user.PalmImage)
  insights := RenderInsights(user.Answers)

  parts := []openai.ContentPart{openai.TextPart(PromptText(topic, name, gender, insights))}
  if image != "" {
    parts = append(parts, openai.ImagePart(image, "high"))
  }
  messages := []openai.Message{
    openai.TextMessage("system", systemPrompt),
    openai.UserMessage(parts...),
  }

  clean, contextID := rs.complete(ctx, messages)

  // A refusal usually means the vision input tripped a policy filter, so
  // the single fallback drops the image and pins the general template. The
  // context id stays bound to the first call.
  if clean == "" || looksLikeRefusal(clean) {
    rs.log.Warn("Falling back to text-only generation", "topic", topic, "had_image", image != "")
    fallback := []openai.Message{
      openai.TextMessage("system", systemPrompt),
      openai.UserMessage(openai.TextPart(PromptText(TopicGeneral, name, gender, insights))),
    }
    clean, _ = rs.complete(ctx, fallback)
  }

  if clean == "" {
    return nil, ErrNoReportContent
  }

  if topic == TopicIntro {
    clean += rs.cfg.IntroCTAHTML
  }
  clean += renderReportButtons(contextID)

  result := &ReportResult{HTML: clean}
  if contextID != "" {
    result.ContextID = &contextID
  }
  return result, nil
}

// complete runs one provider call; transport failures degrade to empty
// content so the caller's fallback logic stays uniform.
func (rs *reportService) complete(ctx context.Context, messages []openai.Message) (string, string) {
  resp, err := rs.ai.Complete(ctx, messages)
  if err != nil {
    rs.log.Warn("OpenAI call failed", "error", err)
    return "", ""
  }
  return stripFences(resp.Content), resp.ContextID
}

func renderReportButtons(contextID string) string {
  return fmt.Sprintf(`<div class="report-buttons" data-context-id="%s">
<button class="btn-report btn-topic-love">Discover Your Love Story</button>
<button class="btn-report btn-topic-wealth">Reveal Your Prosperity Path</button>
<button class="btn-report btn-topic-energy">Awaken Your Inner Energy</button>
</div>`, html.EscapeString(contextID))
}
