package models

import "time"

// TeacherAttendance records whether a teacher was present on a calendar
// date. At most one row exists per (teacher_id, date); writes upsert.
type TeacherAttendance struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Date      time.Time `db:"date" json:"date"`
	Present   bool      `db:"present" json:"present"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceAction describes what an upsert did.
type AttendanceAction string

const (
	AttendanceCreated AttendanceAction = "created"
	AttendanceUpdated AttendanceAction = "updated"
)

// AttendanceWriteResult reports the outcome of a single attendance upsert,
// including the replacement cleanup triggered by an absent-to-present flip.
type AttendanceWriteResult struct {
	Action              AttendanceAction   `json:"action"`
	Record              *TeacherAttendance `json:"record"`
	PreviousPresent     *bool              `json:"previous_present,omitempty"`
	ReplacementsRemoved int                `json:"replacements_removed"`
}

// AttendanceBulkItem is the per-record outcome of a bulk attendance write.
type AttendanceBulkItem struct {
	TeacherID           string           `json:"teacher_id"`
	Action              AttendanceAction `json:"action,omitempty"`
	ReplacementsRemoved int              `json:"replacements_removed"`
	Error               string           `json:"error,omitempty"`
}

// AttendanceBulkResult accumulates a bulk attendance write.
type AttendanceBulkResult struct {
	Results             []AttendanceBulkItem `json:"results"`
	ReplacementsRemoved int                  `json:"replacements_removed"`
}
