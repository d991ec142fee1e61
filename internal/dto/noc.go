package dto

import (
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
)

// CreateNOCRequest is the submission payload for a new request.
type CreateNOCRequest struct {
	Company     string   `json:"company" validate:"required"`
	Position    string   `json:"position" validate:"required"`
	Duration    string   `json:"duration" validate:"required"`
	StartDate   string   `json:"start_date" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Documents   []string `json:"documents,omitempty"`
}

// ReviewNOCRequest captures the reviewer decision and feedback.
type ReviewNOCRequest struct {
	Decision models.ReviewDecision `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Feedback string                `json:"feedback"`
}
