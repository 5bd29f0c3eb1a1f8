package models

import "time"

// CreateArticleRequest is the body of POST /api/articles
type CreateArticleRequest struct {
	Title              string `json:"title" validate:"required,notblank,max=500"`
	Authors            string `json:"authors" validate:"required,notblank,max=1000"`
	Source             string `json:"source" validate:"max=500"`
	YearOfPublication  int    `json:"yearOfPublication" validate:"required,pubyear"`
	Pages              *int   `json:"pages" validate:"omitempty,gt=0"`
	Volume             *int   `json:"volume" validate:"omitempty,gt=0"`
	DOI                string `json:"doi" validate:"omitempty,doi"`
	Claim              string `json:"claim" validate:"required,notblank"`
	Evidence           string `json:"evidence"`
	IsEvidencePositive *bool  `json:"isEvidencePositive"`
	TypeOfResearch     string `json:"typeOfResearch" validate:"omitempty,oneof='Case Study' Experiment"`
	TypeOfParticipant  string `json:"typeOfParticipant" validate:"omitempty,oneof=Student Practitioner"`
	Link               string `json:"link" validate:"omitempty,link"`
}

// UpdateArticleRequest is the body of PUT /api/articles/:id; absent fields stay unchanged
type UpdateArticleRequest struct {
	Title              *string `json:"title" validate:"omitempty,notblank,max=500"`
	Authors            *string `json:"authors" validate:"omitempty,notblank,max=1000"`
	Source             *string `json:"source" validate:"omitempty,max=500"`
	YearOfPublication  *int    `json:"yearOfPublication" validate:"omitempty,pubyear"`
	Pages              *int    `json:"pages" validate:"omitempty,gt=0"`
	Volume             *int    `json:"volume" validate:"omitempty,gt=0"`
	DOI                *string `json:"doi" validate:"omitempty,doi"`
	Claim              *string `json:"claim" validate:"omitempty,notblank"`
	Evidence           *string `json:"evidence"`
	IsEvidencePositive *bool   `json:"isEvidencePositive"`
	TypeOfResearch     *string `json:"typeOfResearch" validate:"omitempty,oneof='Case Study' Experiment"`
	TypeOfParticipant  *string `json:"typeOfParticipant" validate:"omitempty,oneof=Student Practitioner"`
	Link               *string `json:"link" validate:"omitempty,link"`
	Status             *string `json:"status"`
	ReasonForRejection *string `json:"reasonForRejection"`
}

// StatusRequest is the body of PUT /api/articles/approving/:id
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// RateArticleRequest is the body of PATCH /api/articles/:id/rate
type RateArticleRequest struct {
	Rating *int `json:"rating" validate:"required,min=1,max=5"`
}

// StatusUpdate is one element of a batch status update
type StatusUpdate struct {
	ID     string `json:"_id"`
	Status string `json:"status"`
}

// AnalystDecision is one article returned by the analyst
type AnalystDecision struct {
	ID                 string  `json:"_id"`
	Status             string  `json:"status"`
	ReasonForRejection *string `json:"reasonForRejection,omitempty"`
}

// SubmitToAnalystRequest is the body of POST /api/articles/submitToAnalyst
type SubmitToAnalystRequest struct {
	Articles []AnalystDecision `json:"articles" validate:"required"`
}

// Rejection marks a single article as rejected
type Rejection struct {
	ID                 string  `json:"_id"`
	ReasonForRejection *string `json:"reasonForRejection,omitempty"`
}

// ReviewedArticle carries the evidence gathered during review
type ReviewedArticle struct {
	ID       string `json:"_id"`
	Evidence string `json:"evidence"`
}

// SubmitReviewedRequest is the body of POST /api/articles/submitReviewed
type SubmitReviewedRequest struct {
	Articles []ReviewedArticle `json:"articles" validate:"required"`
}

// RegisterRequest creates a moderator account
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,password"`
	TypeOfUser string `json:"typeOfUser" validate:"required,oneof=moderator SREC"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued bearer token
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Moderator *Moderator `json:"moderator"`
}
