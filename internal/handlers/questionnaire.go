package handlers

import (
  "encoding/json"
  "errors"
  "net/http"
  "strings"
  "time"

  "github.com/gin-gonic/gin"

  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/middleware"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/repos"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/services"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/types"
)

// QuestionnaireHandler serves the questionnaire flow: the subscriber gate,
// report generation, and follow-up readings.
type QuestionnaireHandler struct {
  log         *logger.Logger
  sessions    *middleware.Sessions
  eligibility services.EligibilityService
  reports     services.ReportService
  submissions repos.SubmissionRepo
}

func NewQuestionnaireHandler(log *logger.Logger, sessions *middleware.Sessions, eligibility services.EligibilityService, reports services.ReportService, submissions repos.SubmissionRepo) *QuestionnaireHandler {
  handlerLog := log.With("handler", "QuestionnaireHandler")
  return &QuestionnaireHandler{
    log:         handlerLog,
    sessions:    sessions,
    eligibility: eligibility,
    reports:     reports,
    submissions: submissions,
  }
}

type checkSubscriberRequest struct {
  Name  string `json:"name"`
  Email string `json:"email"`
  UUID  string `json:"uuid"`
}

type checkSubscriberResponse struct {
  Status      string                  `json:"status"`
  RedirectURL string                  `json:"redirect_url,omitempty"`
  Sync        any                     `json:"sync,omitempty"`
}

// CheckSubscriber is the pre-answers gate. Besides the JSON outcome it
// writes or clears the long-lived block markers so the front end re-opens
// on the intro step for emails that already used their free run.
func (qh *QuestionnaireHandler) CheckSubscriber(c *gin.Context) {
  var req checkSubscriberRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }

  decision, err := qh.eligibility.CheckSubscriber(c.Request.Context(), req.Name, req.Email, req.UUID)
  if err != nil {
    if errors.Is(err, services.ErrValidation) {
      RespondError(c, http.StatusBadRequest, "validation_error", err)
      return
    }
    RespondError(c, http.StatusInternalServerError, "subscriber_check_failed", err)
    return
  }

  if decision.ClearMarkers {
    qh.sessions.ClearBlockMarkers(c)
  }
  if decision.BlockEmail != "" {
    qh.sessions.SetBlockMarkers(c, decision.BlockEmail)
  }

  RespondOK(c, checkSubscriberResponse{
    Status:      decision.Status,
    RedirectURL: decision.RedirectURL,
    Sync:        decision.Sync,
  })
}

type generateReportRequest struct {
  UUID      string              `json:"uuid"`
  Name      string              `json:"name"`
  Email     string              `json:"email"`
  Gender    string              `json:"gender"`
  Module    string              `json:"module"`
  Topic     string              `json:"topic"`
  Answers   services.AnswerList `json:"answers"`
  PalmImage string              `json:"palm_image"`
}

type reportResponse struct {
  HTML      string `json:"html"`
  ContextID string `json:"context_id,omitempty"`
}

// GenerateReport runs the report phase: authorize, persist the answers,
// call the model, attach the result to the session row. The persistence
// steps log failures instead of aborting; a paying user should never lose
// a charged reading to a bookkeeping write.
func (qh *QuestionnaireHandler) GenerateReport(c *gin.Context) {
  var req generateReportRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  if strings.TrimSpace(req.UUID) == "" || strings.TrimSpace(req.Name) == "" ||
    strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Module) == "" ||
    len(req.Answers) == 0 {
    RespondError(c, http.StatusBadRequest, "validation_error", errors.New("uuid, name, email, module and answers are required"))
    return
  }

  session := qh.sessions.Read(c)
  grant, err := qh.eligibility.AuthorizeGeneration(c.Request.Context(), services.GenerationRequest{
    Email:      req.Email,
    Module:     req.Module,
    Topic:      req.Topic,
    Token:      session.Token,
    ReturnPath: c.Request.URL.Path,
  })
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "authorization_failed", err)
    return
  }

  switch grant.Status {
  case services.StatusLogin:
    RespondOK(c, gin.H{"redirect": grant.RedirectURL})
    return
  case services.StatusMustPurchase:
    RespondOK(c, gin.H{"error": "Not enough credits.", "purchase_url": grant.PurchaseURL})
    return
  }

  qh.saveSubmission(c, &req, grant)

  result, err := qh.reports.Generate(c.Request.Context(), services.ReportUserData{
    Name:      req.Name,
    Gender:    req.Gender,
    Answers:   req.Answers,
    PalmImage: req.PalmImage,
  }, grant.Topic)
  if err != nil {
    qh.respondGenerationError(c, err)
    return
  }

  if err := qh.submissions.AttachResult(c.Request.Context(), nil, req.UUID, result.HTML, result.ContextID); err != nil {
    qh.log.Error("Failed to attach generated report", "uuid", req.UUID, "error", err)
  }

  resp := reportResponse{HTML: result.HTML}
  if result.ContextID != nil {
    resp.ContextID = *result.ContextID
  }
  RespondOK(c, resp)
}

type followupRequest struct {
  Topic     string `json:"topic"`
  ContextID string `json:"context_id"`
}

// GenerateFollowup serves the buttons under a finished report. Always
// authenticated, always paid; the stored submission supplies the answers
// and the new reading goes out without an image. Nothing is persisted.
// The stored reading is resolved before authorization: the debit is not
// refundable, so a context id that matches nothing must fail before any
// charge.
func (qh *QuestionnaireHandler) GenerateFollowup(c *gin.Context) {
  var req followupRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  if strings.TrimSpace(req.ContextID) == "" {
    RespondError(c, http.StatusBadRequest, "validation_error", errors.New("context_id is required"))
    return
  }

  submission, err := qh.submissions.FindByContextID(c.Request.Context(), nil, req.ContextID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "submission_lookup_failed", err)
    return
  }
  if submission == nil {
    RespondError(c, http.StatusNotFound, "not_found", errors.New("no reading matches that context"))
    return
  }

  var answers services.AnswerList
  if err := json.Unmarshal([]byte(submission.AnswersJSON), &answers); err != nil {
    qh.log.Error("Stored answers failed to decode", "uuid", submission.UUID, "error", err)
    RespondError(c, http.StatusInternalServerError, "submission_corrupt", errors.New("stored reading cannot be replayed"))
    return
  }

  session := qh.sessions.Read(c)
  grant, err := qh.eligibility.AuthorizeFollowup(c.Request.Context(), session.Token, req.Topic)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "authorization_failed", err)
    return
  }

  switch grant.Status {
  case services.StatusLogin:
    RespondOK(c, gin.H{"redirect": grant.RedirectURL})
    return
  case services.StatusMustPurchase:
    RespondOK(c, gin.H{"error": "Not enough credits.", "purchase_url": grant.PurchaseURL})
    return
  }

  result, err := qh.reports.Generate(c.Request.Context(), services.ReportUserData{
    Name:    submission.Name,
    Gender:  submission.Gender,
    Answers: answers,
  }, grant.Topic)
  if err != nil {
    qh.respondGenerationError(c, err)
    return
  }

  resp := reportResponse{HTML: result.HTML}
  if result.ContextID != nil {
    resp.ContextID = *result.ContextID
  }
  RespondOK(c, resp)
}

func (qh *QuestionnaireHandler) saveSubmission(c *gin.Context, req *generateReportRequest, grant *services.GenerationGrant) {
  answersJSON, err := json.Marshal(req.Answers)
  if err != nil {
    qh.log.Error("Failed to encode answers", "uuid", req.UUID, "error", err)
    return
  }

  submission := &types.Submission{
    UUID:        req.UUID,
    Module:      req.Module,
    Name:        req.Name,
    Email:       req.Email,
    Gender:      req.Gender,
    AnswersJSON: string(answersJSON),
    SubmittedAt: time.Now(),
  }
  if grant.UserID != "" {
    userID := grant.UserID
    submission.AccountID = &userID
  }

  if err := qh.submissions.Create(c.Request.Context(), nil, submission); err != nil {
    qh.log.Error("Failed to save submission", "uuid", req.UUID, "error", err)
  }
}

func (qh *QuestionnaireHandler) respondGenerationError(c *gin.Context, err error) {
  if errors.Is(err, services.ErrReportNotConfigured) {
    RespondError(c, http.StatusInternalServerError, "report_not_configured", err)
    return
  }
  RespondError(c, http.StatusBadGateway, "report_failed", err)
}
