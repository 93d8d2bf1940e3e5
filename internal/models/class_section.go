package models

import (
	"fmt"
	"time"
)

// ClassSection is a grade/section pair such as 10-A.
type ClassSection struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Grade          string    `gorm:"size:32;not null;uniqueIndex:idx_class_grade_section" json:"grade"`
	Section        string    `gorm:"size:64;not null;uniqueIndex:idx_class_grade_section" json:"section"`
	ClassTeacherID *string   `gorm:"size:36" json:"class_teacher_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// GradeLabel renders the grade the way it is stored on students, e.g. "Class 10".
func (c ClassSection) GradeLabel() string {
	return fmt.Sprintf("Class %s", c.Grade)
}
