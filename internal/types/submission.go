package types

import (
  "time"
)

// Submission is one questionnaire attempt. The row is inserted when the
// visitor submits their answers and updated once more when the report is
// generated. UUID is the client-generated session id and is deliberately
// not unique: the update key for the second phase, nothing more.
type Submission struct {
  ID                string     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UUID              string     `gorm:"size:64;not null;index;column:uuid" json:"uuid"`
  Module            string     `gorm:"size:100;not null;column:module" json:"module"`
  Name              string     `gorm:"column:name" json:"name"`
  Email             string     `gorm:"column:email;index" json:"email"`
  Gender            string     `gorm:"size:50;column:gender" json:"gender"`
  AnswersJSON       string     `gorm:"type:text;column:answers_json" json:"answers_json"`
  GeneratedHTML     string     `gorm:"type:text;column:generated_html" json:"generated_html"`
  AccountID         *string    `gorm:"size:64;column:account_id" json:"account_id"`
  ProfileID         *string    `gorm:"size:64;column:profile_id" json:"profile_id"`
  ProviderContextID *string    `gorm:"size:100;column:provider_context_id" json:"provider_context_id"`
  SubmittedAt       time.Time  `gorm:"not null;default:now();column:submitted_at" json:"submitted_at"`
}

func (Submission) TableName() string {
  return "holistic_palm_reading"
}

// HasAccount reports whether this row has been correlated with an external
// Soul Mirror account out-of-band.
func (s *Submission) HasAccount() bool {
  return s != nil && ((s.AccountID != nil && *s.AccountID != "") || (s.ProfileID != nil && *s.ProfileID != ""))
}
