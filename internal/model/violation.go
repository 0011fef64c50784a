package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationType enumerates integrity events reported by the client-side
// proctoring capture layer. Only the events matter here; the capture
// mechanics are external.
type ViolationType string

const (
	ViolationCameraDisabled ViolationType = "camera_disabled"
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationWindowBlur     ViolationType = "window_blur"
)

// ViolationSeverity grades a violation. A single critical violation
// nullifies the session (one-strike policy); warnings are logged only.
type ViolationSeverity string

const (
	SeverityWarning  ViolationSeverity = "warning"
	SeverityCritical ViolationSeverity = "critical"
)

// Violation is one recorded integrity event.
type Violation struct {
	ID          int64             `json:"id"`
	SessionID   uuid.UUID         `json:"session_id"`
	Type        ViolationType     `json:"type"`
	Severity    ViolationSeverity `json:"severity"`
	Description string            `json:"description"`
	RecordedAt  time.Time         `json:"recorded_at"`
}

// ValidType reports whether t is a known violation type.
func ValidType(t ViolationType) bool {
	switch t {
	case ViolationCameraDisabled, ViolationFullscreenExit, ViolationTabSwitch, ViolationWindowBlur:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s ViolationSeverity) bool {
	return s == SeverityWarning || s == SeverityCritical
}

// ProctorState is the per-session monitoring state. It lives in a
// TTL-backed Redis hash rather than process memory so a restart cannot
// erase the record behind a one-strike policy.
type ProctorState struct {
	SessionID        uuid.UUID `json:"session_id"`
	UserID           int       `json:"user_id"`
	StartedAt        time.Time `json:"started_at"`
	Active           bool      `json:"active"`
	CameraEnabled    bool      `json:"camera_enabled"`
	FullscreenActive bool      `json:"fullscreen_active"`
}

// ViolationCounts summarizes a session's violation history by severity.
type ViolationCounts struct {
	Warnings int `json:"warnings"`
	Critical int `json:"critical"`
}

// RecordViolationRequest is the payload for reporting an integrity event.
type RecordViolationRequest struct {
	SessionID   string `json:"session_id" binding:"required,uuid"`
	Type        string `json:"type" binding:"required"`
	Severity    string `json:"severity" binding:"required"`
	Description string `json:"description"`
}

// InitializeProctoringRequest starts monitoring for a session.
type InitializeProctoringRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
	UserID    int    `json:"user_id"`
}

// UpdateProctorFlagsRequest reports camera/fullscreen status changes.
type UpdateProctorFlagsRequest struct {
	CameraEnabled    *bool `json:"camera_enabled,omitempty"`
	FullscreenActive *bool `json:"fullscreen_active,omitempty"`
}
