package domain

import "time"

// Semester — учебный семестр. В каждый момент активен не более одного.
type Semester struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SemesterInput struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Section — учебная группа внутри семестра.
type Section struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	SemesterID *int64    `json:"semester_id"`
	ClassCount int64     `json:"class_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SectionInput struct {
	Code       string `json:"code"`
	SemesterID *int64 `json:"semester_id,omitempty"`
}

// Class — одно занятие в расписании. Удаление мягкое, через archived_at.
type Class struct {
	ID         int64      `json:"id"`
	Code       string     `json:"code"`
	Title      string     `json:"title"`
	SectionID  *int64     `json:"section_id"`
	Instructor string     `json:"instructor,omitempty"`
	Days       string     `json:"days,omitempty"`     // "MWF", "TTh"
	StartsAt   string     `json:"starts_at,omitempty"` // "HH:MM"
	EndsAt     string     `json:"ends_at,omitempty"`
	Room       string     `json:"room,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type ClassInput struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	SectionID  *int64 `json:"section_id,omitempty"`
	Instructor string `json:"instructor,omitempty"`
	Days       string `json:"days,omitempty"`
	StartsAt   string `json:"starts_at,omitempty"`
	EndsAt     string `json:"ends_at,omitempty"`
	Room       string `json:"room,omitempty"`
}
