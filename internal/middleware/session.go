package middleware

import (
  "strings"

  "github.com/gin-gonic/gin"
)

// Cookie names shared with the questionnaire front end. sm_jwt carries the
// account credential; the two hai_* markers persist the "email already used"
// state across visits.
const (
  CookieToken      = "sm_jwt"
  CookieForceIntro = "hai_force_intro"
  CookieBlockEmail = "hai_block_email"
)

// markerMaxAge keeps the block markers alive for a year.
const markerMaxAge = 365 * 24 * 60 * 60

type CookieConfig struct {
  Domain string
  Secure bool
}

// SessionState is what the handlers need from the request cookies. Only the
// credential is read server-side; the hai_* markers are written for the
// front end and never consulted here.
type SessionState struct {
  Token string
}

type Sessions struct {
  cfg CookieConfig
}

func NewSessions(cfg CookieConfig) *Sessions {
  return &Sessions{cfg: cfg}
}

func (s *Sessions) Read(c *gin.Context) SessionState {
  state := SessionState{}
  if v, err := c.Cookie(CookieToken); err == nil {
    state.Token = strings.TrimSpace(v)
  }
  return state
}

// SetBlockMarkers pins the session to the intro step and remembers which
// email triggered the block. gin query-escapes cookie values on write and
// unescapes on read, so the email goes in raw.
func (s *Sessions) SetBlockMarkers(c *gin.Context, email string) {
  c.SetCookie(CookieForceIntro, "1", markerMaxAge, "/", s.cfg.Domain, s.cfg.Secure, true)
  c.SetCookie(CookieBlockEmail, email, markerMaxAge, "/", s.cfg.Domain, s.cfg.Secure, true)
}

func (s *Sessions) ClearBlockMarkers(c *gin.Context) {
  c.SetCookie(CookieForceIntro, "", -1, "/", s.cfg.Domain, s.cfg.Secure, true)
  c.SetCookie(CookieBlockEmail, "", -1, "/", s.cfg.Domain, s.cfg.Secure, true)
}
