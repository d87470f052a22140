package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Surname   string    `db:"surname" json:"surname"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the teacher's full name for ordering and rendering.
func (t Teacher) DisplayName() string {
	if t.Surname == "" {
		return t.Name
	}
	return t.Name + " " + t.Surname
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherStat aggregates the workload and reliability signals the substitute
// selector ranks candidates by.
type TeacherStat struct {
	ID              string `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	Surname         string `db:"surname" json:"surname"`
	WeeklyLessons   int    `db:"weekly_lessons" json:"weekly_lessons"`
	PresentCount    int    `db:"present_count" json:"present_count"`
	AttendanceCount int    `db:"attendance_count" json:"attendance_count"`
}

// DisplayName mirrors Teacher.DisplayName for stat rows.
func (s TeacherStat) DisplayName() string {
	if s.Surname == "" {
		return s.Name
	}
	return s.Name + " " + s.Surname
}

// AttendanceRate returns the teacher's historical presence ratio. Teachers
// with no history count as fully reliable.
func (s TeacherStat) AttendanceRate() float64 {
	if s.AttendanceCount == 0 {
		return 1.0
	}
	return float64(s.PresentCount) / float64(s.AttendanceCount)
}
