package models

import "time"

// ScheduledLesson is one lesson occurrence inside the day view, tagged with
// the signals the replacement workflow needs.
type ScheduledLesson struct {
	LessonID       string `json:"lesson_id"`
	TeacherID      string `json:"teacher_id"`
	TeacherName    string `json:"teacher_name"`
	SubjectName    string `json:"subject_name"`
	ClassName      string `json:"class_name"`
	WeeklyLessons  int    `json:"weekly_lessons"`
	IsAbsent       bool   `json:"is_absent"`
	HasReplacement bool   `json:"has_replacement"`
}

// ScheduleSlot groups the lessons sharing one [start, end) time slot.
type ScheduleSlot struct {
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Lessons   []ScheduledLesson `json:"lessons"`
}

// DaySchedule is the full day view: slots ordered by start time, lessons
// within a slot ordered by teacher name.
type DaySchedule struct {
	Date  time.Time      `json:"date"`
	Day   DayOfWeek      `json:"day_of_week,omitempty"`
	Slots []ScheduleSlot `json:"slots"`
}
