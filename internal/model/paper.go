package model

import (
	"strings"
	"time"

	"paperapi/internal/apperr"
)

// Paper represents one catalogued exam document and its backing file.
// This is a pure domain model with no database-specific dependencies or tags.
// FilePath is relative to the document store root and never leaves the server.
type Paper struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Course        string    `json:"course"`
	Semester      string    `json:"semester"`
	AcademicYear  string    `json:"academicYear"`
	Subject       string    `json:"subject"`
	SubjectCode   *string   `json:"subjectCode"`
	Department    string    `json:"department"`
	FileName      string    `json:"fileName"`
	FilePath      string    `json:"-"`
	FileSize      int64     `json:"fileSize"`
	DownloadCount int64     `json:"downloadCount"`
	UploadedBy    *string   `json:"uploadedBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PaperInput holds the descriptive fields supplied by an uploader.
type PaperInput struct {
	Title        string `json:"title" form:"title"`
	Course       string `json:"course" form:"course"`
	Semester     string `json:"semester" form:"semester"`
	AcademicYear string `json:"academicYear" form:"academicYear"`
	Subject      string `json:"subject" form:"subject"`
	SubjectCode  string `json:"subjectCode" form:"subjectCode"`
	Department   string `json:"department" form:"department"`
}

// Normalize trims surrounding whitespace from every field.
func (in PaperInput) Normalize() PaperInput {
	return PaperInput{
		Title:        strings.TrimSpace(in.Title),
		Course:       strings.TrimSpace(in.Course),
		Semester:     strings.TrimSpace(in.Semester),
		AcademicYear: strings.TrimSpace(in.AcademicYear),
		Subject:      strings.TrimSpace(in.Subject),
		SubjectCode:  strings.TrimSpace(in.SubjectCode),
		Department:   strings.TrimSpace(in.Department),
	}
}

// Validate returns a *apperr.ValidationError for the first empty required field.
func (in PaperInput) Validate() error {
	return validateRequired(
		"title", in.Title,
		"course", in.Course,
		"semester", in.Semester,
		"academicYear", in.AcademicYear,
		"subject", in.Subject,
		"department", in.Department,
	)
}

// Validate checks the required descriptive fields of a stored paper.
func (p *Paper) Validate() error {
	return p.Input().Validate()
}

// Input returns the descriptive fields of p.
func (p *Paper) Input() PaperInput {
	in := PaperInput{
		Title:        p.Title,
		Course:       p.Course,
		Semester:     p.Semester,
		AcademicYear: p.AcademicYear,
		Subject:      p.Subject,
		Department:   p.Department,
	}
	if p.SubjectCode != nil {
		in.SubjectCode = *p.SubjectCode
	}
	return in
}

// validateRequired takes alternating field name / value pairs.
func validateRequired(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperr.Required(pairs[i])
		}
	}
	return nil
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	TotalPapers    int   `json:"totalPapers"`
	ThisMonth      int   `json:"thisMonth"`
	TotalDownloads int64 `json:"totalDownloads"`
	ActiveCourses  int   `json:"activeCourses"`
}
