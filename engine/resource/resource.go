// Package resource defines the records owned by the backend and the forms
// used to create or change them.
package resource

import (
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// Kind names a backend collection.
type Kind string

const (
	KindInquiry     Kind = "inquiry"
	KindProject     Kind = "project"
	KindTeamMember  Kind = "team"
	KindJobOpening  Kind = "opening"
	KindApplication Kind = "application"
)

func (k Kind) String() string {
	return string(k)
}

// Inquiry is a contact form submission.
type Inquiry struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    InquiryStatus `json:"status"`
	CreatedAt Timestamp     `json:"created_at"`
}

func (i Inquiry) RowID() string { return strconv.Itoa(i.ID) }

func (i Inquiry) Field(key string) any {
	switch key {
	case "id":
		return i.ID
	case "name":
		return i.Name
	case "email":
		return i.Email
	case "subject":
		return i.Subject
	case "message":
		return i.Message
	case "status":
		return string(i.Status)
	case "created_at":
		return i.CreatedAt.Time
	}
	return nil
}

// Project is a portfolio entry.
type Project struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TechStack   []string  `json:"tech_stack"`
	ImageURL    string    `json:"image_url,omitempty"`
	LiveURL     string    `json:"live_url,omitempty"`
	GithubURL   string    `json:"github_url,omitempty"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   Timestamp `json:"created_at"`
}

func (p Project) RowID() string { return strconv.Itoa(p.ID) }

func (p Project) Field(key string) any {
	switch key {
	case "id":
		return p.ID
	case "title":
		return p.Title
	case "description":
		return p.Description
	case "tech_stack":
		return p.TechStack
	case "image_url":
		return p.ImageURL
	case "live_url":
		return p.LiveURL
	case "github_url":
		return p.GithubURL
	case "is_featured":
		return p.IsFeatured
	case "created_at":
		return p.CreatedAt.Time
	}
	return nil
}

// Slug is the URL-safe form of the title.
func (p Project) Slug() string {
	return slug.Make(p.Title)
}

// Permalink is the public detail path for the project.
func (p Project) Permalink() string {
	s := p.Slug()
	if s == "" {
		return "/projects/" + p.RowID()
	}
	return "/projects/" + p.RowID() + "-" + s
}

// HasTech reports whether the stack lists tech, ignoring case.
func (p Project) HasTech(tech string) bool {
	for _, t := range p.TechStack {
		if strings.EqualFold(strings.TrimSpace(t), tech) {
			return true
		}
	}
	return false
}

// TeamMember is a person shown on the team page.
type TeamMember struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Role        string `json:"role" db:"role"`
	Bio         string `json:"bio,omitempty" db:"bio"`
	PhotoURL    string `json:"photo_url,omitempty" db:"photo_url"`
	LinkedinURL string `json:"linkedin_url,omitempty" db:"linkedin_url"`
	GithubURL   string `json:"github_url,omitempty" db:"github_url"`
}

func (m TeamMember) RowID() string { return strconv.Itoa(m.ID) }

func (m TeamMember) Field(key string) any {
	switch key {
	case "id":
		return m.ID
	case "name":
		return m.Name
	case "role":
		return m.Role
	case "bio":
		return m.Bio
	case "photo_url":
		return m.PhotoURL
	case "linkedin_url":
		return m.LinkedinURL
	case "github_url":
		return m.GithubURL
	}
	return nil
}

// Initials returns up to two upper-case initials for avatar placeholders.
func (m TeamMember) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(m.Name) {
		r := []rune(part)
		b.WriteString(strings.ToUpper(string(r[0])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// JobOpening is an advertised role.
type JobOpening struct {
	ID                 int       `json:"id"`
	Title              string    `json:"title"`
	Department         string    `json:"department"`
	Location           string    `json:"location"`
	JobType            JobType   `json:"job_type"`
	SalaryRange        string    `json:"salary_range,omitempty"`
	ExperienceRequired string    `json:"experience_required,omitempty"`
	Description        string    `json:"description"`
	Requirements       string    `json:"requirements,omitempty"`
	Benefits           string    `json:"benefits,omitempty"`
	IsActive           bool      `json:"is_active"`
	PostedDate         Timestamp `json:"posted_date"`
}

func (o JobOpening) RowID() string { return strconv.Itoa(o.ID) }

func (o JobOpening) Field(key string) any {
	switch key {
	case "id":
		return o.ID
	case "title":
		return o.Title
	case "department":
		return o.Department
	case "location":
		return o.Location
	case "job_type":
		return string(o.JobType)
	case "salary_range":
		return o.SalaryRange
	case "experience_required":
		return o.ExperienceRequired
	case "description":
		return o.Description
	case "requirements":
		return o.Requirements
	case "benefits":
		return o.Benefits
	case "is_active":
		return o.IsActive
	case "posted_date":
		return o.PostedDate.Time
	}
	return nil
}

// Application is a candidate's submission for an opening.
type Application struct {
	ID             int               `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone,omitempty"`
	CoverLetter    string            `json:"cover_letter,omitempty"`
	PortfolioURL   string            `json:"portfolio_url,omitempty"`
	ResumeFilename string            `json:"resume_filename"`
	JobID          int               `json:"job_id"`
	JobTitle       string            `json:"job_title"`
	Status         ApplicationStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	AppliedAt      Timestamp         `json:"applied_at"`
}

func (a Application) RowID() string { return strconv.Itoa(a.ID) }

func (a Application) Field(key string) any {
	switch key {
	case "id":
		return a.ID
	case "name":
		return a.Name
	case "email":
		return a.Email
	case "phone":
		return a.Phone
	case "cover_letter":
		return a.CoverLetter
	case "portfolio_url":
		return a.PortfolioURL
	case "resume_filename":
		return a.ResumeFilename
	case "job_id":
		return a.JobID
	case "job_title":
		return a.JobTitle
	case "status":
		return string(a.Status)
	case "notes":
		return a.Notes
	case "applied_at":
		return a.AppliedAt.Time
	}
	return nil
}

// Timestamp decodes the backend's ISO timestamps, which may omit the zone.
// Values without a zone are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format(time.RFC3339Nano))), nil
}

// Date formats the timestamp for tables, or "" when unset.
func (t Timestamp) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
