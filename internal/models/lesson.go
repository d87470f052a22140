package models

import (
	"fmt"
	"time"
)

// DayOfWeek is one of the five recurring work days lessons are scheduled on.
type DayOfWeek string

const (
	DaySunday    DayOfWeek = "SUNDAY"
	DayMonday    DayOfWeek = "MONDAY"
	DayTuesday   DayOfWeek = "TUESDAY"
	DayWednesday DayOfWeek = "WEDNESDAY"
	DayThursday  DayOfWeek = "THURSDAY"
)

// WorkDays lists the school week in calendar order.
var WorkDays = []DayOfWeek{DaySunday, DayMonday, DayTuesday, DayWednesday, DayThursday}

// Valid returns true when the day is a supported work day.
func (d DayOfWeek) Valid() bool {
	switch d {
	case DaySunday, DayMonday, DayTuesday, DayWednesday, DayThursday:
		return true
	default:
		return false
	}
}

// DayOfWeekForDate maps a calendar date onto the five-day work week.
// Friday and Saturday are outside the school week; ok is false for them.
func DayOfWeekForDate(date time.Time) (DayOfWeek, bool) {
	idx := int(date.Weekday())
	if idx >= len(WorkDays) {
		return "", false
	}
	return WorkDays[idx], true
}

// Lesson is a weekly recurring class session owned by one teacher.
// StartTime and EndTime are wall-clock "HH:MM" values; the pair is a
// half-open [start, end) slot.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Day       DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SlotKey identifies the lesson's recurring time slot within its day.
func (l Lesson) SlotKey() string {
	return l.StartTime + "-" + l.EndTime
}

// LessonDetail extends a lesson with joined display fields.
type LessonDetail struct {
	Lesson
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	ClassName   string `db:"class_name" json:"class_name"`
}

// LessonFilter describes query params for listing lessons.
type LessonFilter struct {
	TeacherID string
	SubjectID string
	ClassID   string
	Day       string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// MinuteOfDay parses an "HH:MM" wall-clock value into minutes since
// midnight. Used for overlap checks and slot ordering.
func MinuteOfDay(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return h*60 + m, nil
}

// SlotsOverlap reports whether two half-open [start, end) minute ranges
// intersect.
func SlotsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
