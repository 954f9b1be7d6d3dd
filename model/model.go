package model

import (
	"strings"
	"time"
)

// Status of a guide application as reported by the server.
type Status string

const (
	StatusDrafted       Status = "drafted"
	StatusPending       Status = "pending"
	StatusNeedsMoreInfo Status = "needs_more_info"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// EventKind discriminates timeline entries.
type EventKind string

const (
	EventSubmissionRecorded EventKind = "submission_recorded"
	EventAdminAction        EventKind = "admin_action"
	EventUserResponse       EventKind = "user_response"
)

// AdminActionKind is the concrete action a reviewer took.
type AdminActionKind string

const (
	ActionReview          AdminActionKind = "review"
	ActionApprove         AdminActionKind = "approve"
	ActionReject          AdminActionKind = "reject"
	ActionRequireMoreInfo AdminActionKind = "require_more_info"
)

// TimelineEvent is one immutable record in an application's approval
// history. Events are append-only on the server side; clients only read.
type TimelineEvent struct {
	ID          int64                `json:"id"`
	Kind        EventKind            `json:"kind"`
	Timestamp   time.Time            `json:"timestamp"`
	AdminAction AdminActionKind      `json:"adminAction,omitempty"`
	Note        string               `json:"note,omitempty"`
	Response    *UserResponsePayload `json:"responsePayload,omitempty"`
	ActorName   string               `json:"actorName,omitempty"`
}

// UserResponsePayload carries the applicant's answer to a reviewer's
// request for supplemental materials.
type UserResponsePayload struct {
	Description string                    `json:"description,omitempty"`
	Files       map[string]SupplementFile `json:"files,omitempty"`
}

type SupplementFile struct {
	Proof       string `json:"proof"`
	Description string `json:"description,omitempty"`
	Visible     bool   `json:"visible"`
}

// Application is the server-reported snapshot of one guide application.
type Application struct {
	ID           int64       `json:"id"`
	Status       Status      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Notes        string      `json:"notes,omitempty"`
	InternalTags []string    `json:"internalTags,omitempty"`
	Values       *FormValues `json:"values,omitempty"`
}

const pdfTagPrefix = "pdf:"

// PDFTag builds the internal tag that records an archived-PDF URL.
func PDFTag(url string) string {
	return pdfTagPrefix + url
}

// IsPDFTag reports whether tag follows the archived-PDF convention and
// returns the embedded URL.
func IsPDFTag(tag string) (url string, ok bool) {
	if strings.HasPrefix(tag, pdfTagPrefix) {
		return strings.TrimPrefix(tag, pdfTagPrefix), true
	}
	return "", false
}

// Attachment is one qualification document attached to the form.
// Data is only set while the file has not been uploaded yet; once the
// upload collaborator resolved it, Uploaded is true and FileID/PublicURL
// are durable.
type Attachment struct {
	Filename  string `json:"filename"`
	Data      []byte `json:"-"`
	Uploaded  bool   `json:"uploaded"`
	FileID    string `json:"fileId,omitempty"`
	PublicURL string `json:"publicUrl,omitempty"`
}

// FormValues is the full answer set of the become-a-guide wizard.
type FormValues struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Sex            string `json:"sex"`
	City           string `json:"city"`
	Bio            string `json:"bio"`
	Occupation     string `json:"occupation"`
	Zipcode        string `json:"zipcode"`
	ResidenceSince string `json:"residenceSince"`

	ExperienceYears int `json:"experienceYears"`
	ToursGiven      int `json:"toursGiven"`

	Languages    []string `json:"languages"`
	Services     []string `json:"services"`
	TargetGroups []string `json:"targetGroups"`

	MinPeople   int `json:"minPeople"`
	MaxPeople   int `json:"maxPeople"`
	MinDuration int `json:"minDuration"`
	MaxDuration int `json:"maxDuration"`

	PricePerHour  float64 `json:"pricePerHour"`
	PricePerExtra float64 `json:"pricePerExtra"`
	Currency      string  `json:"currency"`

	// Free-text answers to the five personalized questions.
	QuestionAnswers [5]string `json:"questionAnswers"`

	Qualifications []Attachment `json:"qualifications,omitempty"`
}

// FormDraft is a locally persisted snapshot of in-progress answers.
// It is owned by a single wizard instance and overwritten on every save.
type FormDraft struct {
	Values  FormValues `json:"values"`
	SavedAt time.Time  `json:"savedAt"`
}

// SubmissionResult is the canonical acknowledgment shape of a submit.
// Upstream APIs are inconsistent about where the id lives; collaborator
// adapters normalize to this before it reaches the wizard.
type SubmissionResult struct {
	ID int64 `json:"id"`
}
