package models

import "time"

// Replacement assigns a substitute teacher to one lesson instance on one
// calendar date. The (date, lesson_id) pair is unique; the database
// enforces it so concurrent assignments race safely.
type Replacement struct {
	ID                   string    `db:"id" json:"id"`
	Date                 time.Time `db:"date" json:"date"`
	LessonID             string    `db:"lesson_id" json:"lesson_id"`
	OriginalTeacherID    string    `db:"original_teacher_id" json:"original_teacher_id"`
	ReplacementTeacherID string    `db:"replacement_teacher_id" json:"replacement_teacher_id"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// ReplacementDetail carries the joined display fields schedule views render.
type ReplacementDetail struct {
	Replacement
	OriginalTeacherName    string `db:"original_teacher_name" json:"original_teacher_name"`
	ReplacementTeacherName string `db:"replacement_teacher_name" json:"replacement_teacher_name"`
	SubjectName            string `db:"subject_name" json:"subject_name"`
	ClassName              string `db:"class_name" json:"class_name"`
	StartTime              string `db:"start_time" json:"start_time"`
	EndTime                string `db:"end_time" json:"end_time"`
}

// ReplacementFilter scopes deletions and listings. Zero values mean
// "not filtered"; Delete requires at least one field set.
type ReplacementFilter struct {
	OriginalTeacherID string
	Date              *time.Time
	LessonID          string
}

// Empty reports whether no filter dimension is set.
func (f ReplacementFilter) Empty() bool {
	return f.OriginalTeacherID == "" && f.Date == nil && f.LessonID == ""
}

// AssignmentInput is one create-replacement tuple, used by both the single
// and the bulk write paths.
type AssignmentInput struct {
	LessonID             string    `json:"lesson_id"`
	OriginalTeacherID    string    `json:"original_teacher_id"`
	ReplacementTeacherID string    `json:"replacement_teacher_id"`
	Date                 time.Time `json:"date"`
}

// Complete reports whether all four required fields are present.
func (a AssignmentInput) Complete() bool {
	return a.LessonID != "" && a.OriginalTeacherID != "" && a.ReplacementTeacherID != "" && !a.Date.IsZero()
}
