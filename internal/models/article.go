package models

import (
	"strings"
	"time"
)

// ArticleStatus is the position of an article in the review workflow
type ArticleStatus string

const (
	StatusPending       ArticleStatus = "Pending"
	StatusSubmitted     ArticleStatus = "Submitted"
	StatusApproved      ArticleStatus = "Approved"
	StatusRejected      ArticleStatus = "Rejected"
	StatusDisplayable   ArticleStatus = "Displayable"
	StatusUndisplayable ArticleStatus = "Undisplayable"
)

// AllStatuses lists the canonical statuses in workflow order
var AllStatuses = []ArticleStatus{
	StatusPending,
	StatusSubmitted,
	StatusApproved,
	StatusRejected,
	StatusDisplayable,
	StatusUndisplayable,
}

// ParseStatus normalizes external input against the canonical set.
// Matching ignores case and surrounding whitespace.
func ParseStatus(s string) (ArticleStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range AllStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// ResearchType classifies how the evidence was gathered
type ResearchType string

const (
	ResearchCaseStudy  ResearchType = "Case Study"
	ResearchExperiment ResearchType = "Experiment"
)

// ParticipantType classifies who took part in the study
type ParticipantType string

const (
	ParticipantStudent      ParticipantType = "Student"
	ParticipantPractitioner ParticipantType = "Practitioner"
)

// DefaultRejectionReason is stored when a rejection carries no reason
const DefaultRejectionReason = "No reason provided"

// Article represents a submitted research claim
type Article struct {
	ID                 string           `json:"_id" db:"id"`
	Title              string           `json:"title" db:"title"`
	Authors            string           `json:"authors" db:"authors"`
	Source             string           `json:"source,omitempty" db:"source"`
	YearOfPublication  int              `json:"yearOfPublication" db:"year_of_publication"`
	Pages              *int             `json:"pages,omitempty" db:"pages"`
	Volume             *int             `json:"volume,omitempty" db:"volume"`
	DOI                *string          `json:"doi,omitempty" db:"doi"`
	Claim              string           `json:"claim" db:"claim"`
	Evidence           *string          `json:"evidence,omitempty" db:"evidence"`
	IsEvidencePositive *bool            `json:"isEvidencePositive,omitempty" db:"is_evidence_positive"`
	TypeOfResearch     *ResearchType    `json:"typeOfResearch,omitempty" db:"type_of_research"`
	TypeOfParticipant  *ParticipantType `json:"typeOfParticipant,omitempty" db:"type_of_participant"`
	Link               *string          `json:"link,omitempty" db:"link"`
	Status             ArticleStatus    `json:"status" db:"status"`
	ReasonForRejection *string          `json:"reasonForRejection,omitempty" db:"reason_for_rejection"`
	SubmittedDate      time.Time        `json:"submittedDate" db:"submitted_date"`
	ApprovedDate       *time.Time       `json:"approvedDate,omitempty" db:"approved_date"`
	RatingCounter      int              `json:"ratingCounter" db:"rating_counter"`
	TotalRating        int              `json:"totalRating" db:"total_rating"`
	AverageRating      float64          `json:"averageRating" db:"average_rating"`
	CreatedAt          time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time        `json:"updatedAt" db:"updated_at"`
}

// ArticleFilter narrows list and export queries
type ArticleFilter struct {
	Statuses []ArticleStatus
	FromYear int
	ToYear   int
	Query    string
	Limit    int
	Offset   int
}

// ArticleChanges carries the fields of a partial update; nil means unchanged
type ArticleChanges struct {
	Title              *string
	Authors            *string
	Source             *string
	YearOfPublication  *int
	Pages              *int
	Volume             *int
	DOI                *string
	Claim              *string
	Evidence           *string
	IsEvidencePositive *bool
	TypeOfResearch     *ResearchType
	TypeOfParticipant  *ParticipantType
	Link               *string
	Status             *ArticleStatus
	ReasonForRejection *string
}

// Empty reports whether no field is set
func (c *ArticleChanges) Empty() bool {
	return c.Title == nil && c.Authors == nil && c.Source == nil && c.YearOfPublication == nil &&
		c.Pages == nil && c.Volume == nil && c.DOI == nil && c.Claim == nil && c.Evidence == nil &&
		c.IsEvidencePositive == nil && c.TypeOfResearch == nil && c.TypeOfParticipant == nil &&
		c.Link == nil && c.Status == nil && c.ReasonForRejection == nil
}
