package model

import (
	"github.com/google/uuid"
)

// Feedback finalizes a session: writing it is what moves the appointment
// to completed. At most one record per (appointment, reviewer) pair.
type Feedback struct {
	Base
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	ReviewerID    uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	MentorID      uuid.UUID `db:"mentor_id" json:"mentor_id"`
	Rating        int       `db:"rating" json:"rating"`
	PrivateNotes  string    `db:"private_notes" json:"private_notes,omitempty"`
	PublicComment string    `db:"public_comment" json:"public_comment,omitempty"`
}

type SubmitFeedbackRequest struct {
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	PrivateNotes  string `json:"private_notes" binding:"max=2000"`
	PublicComment string `json:"public_comment" binding:"max=2000"`
}
