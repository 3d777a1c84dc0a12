package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Terminal reports whether no further transitions are permitted.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// Appointment represents one scheduled mentoring session. Rows are never
// deleted; terminal states are retained for history.
type Appointment struct {
	Base
	MentorID        uuid.UUID         `db:"mentor_id" json:"mentor_id"`
	MenteeID        uuid.UUID         `db:"mentee_id" json:"mentee_id"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	MenteeNote      string            `db:"mentee_note" json:"mentee_note,omitempty"`
	MentorNote      string            `db:"mentor_note" json:"mentor_note,omitempty"`
	CalendarEventID *string           `db:"calendar_event_id" json:"calendar_event_id,omitempty"`
	MeetingLink     *string           `db:"meeting_link" json:"meeting_link,omitempty"`
	CancelReason    *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy     *uuid.UUID        `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// DurationMinutes returns the session length.
func (a *Appointment) DurationMinutes() int {
	return int(a.EndTime.Sub(a.StartTime) / time.Minute)
}

type BookAppointmentRequest struct {
	MentorID        string `json:"mentor_id" binding:"required,uuid"`
	ScheduledAt     string `json:"scheduled_at" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=15,max=240"`
	Message         string `json:"message" binding:"max=1000"`
}

type ConfirmAppointmentRequest struct {
	MentorNotes string `json:"mentor_notes" binding:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required,notblank"`
}

// ConfirmResult carries a confirmed appointment plus an optional soft
// failure from the calendar collaborator.
type ConfirmResult struct {
	Appointment   *Appointment `json:"appointment"`
	JoinLink      string       `json:"join_link,omitempty"`
	CalendarError string       `json:"calendar_error,omitempty"`
}

// CancelResult mirrors ConfirmResult for the symmetric event removal.
type CancelResult struct {
	Appointment   *Appointment `json:"appointment"`
	CalendarError string       `json:"calendar_error,omitempty"`
}

type AppointmentFilters struct {
	MentorID uuid.UUID
	MenteeID uuid.UUID
	Status   AppointmentStatus
	From     time.Time
	To       time.Time
}
