package resource

import "strings"

// DefaultContactSubject pre-fills the contact form.
const DefaultContactSubject = "New Project Inquiry"

// ContactForm is the public inquiry form.
type ContactForm struct {
	Name    string `json:"name" form:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Subject string `json:"subject" form:"subject" validate:"required,min=3,max=200"`
	Message string `json:"message" form:"message" validate:"required,min=2,max=2000"`
}

func (f *ContactForm) Normalize() {
	trim(&f.Name, &f.Email, &f.Subject, &f.Message)
}

// ProjectForm is the admin portfolio form. TechStack is comma separated.
type ProjectForm struct {
	Title       string `json:"title" form:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" form:"description" validate:"required,min=20,max=5000"`
	TechStack   string `json:"tech_stack" form:"tech_stack"`
	ImageURL    string `json:"image_url" form:"image_url" validate:"omitempty,url"`
	LiveURL     string `json:"live_url" form:"live_url" validate:"omitempty,url"`
	GithubURL   string `json:"github_url" form:"github_url" validate:"omitempty,url"`
	IsFeatured  bool   `json:"is_featured" form:"is_featured"`
}

func (f *ProjectForm) Normalize() {
	trim(&f.Title, &f.Description, &f.TechStack, &f.ImageURL, &f.LiveURL, &f.GithubURL)
}

// ProjectInput is the body sent to the portfolio endpoints.
type ProjectInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TechStack   []string `json:"tech_stack"`
	ImageURL    string   `json:"image_url,omitempty"`
	LiveURL     string   `json:"live_url,omitempty"`
	GithubURL   string   `json:"github_url,omitempty"`
	IsFeatured  bool     `json:"is_featured"`
}

func (f ProjectForm) Input() ProjectInput {
	return ProjectInput{
		Title:       f.Title,
		Description: f.Description,
		TechStack:   SplitTechStack(f.TechStack),
		ImageURL:    f.ImageURL,
		LiveURL:     f.LiveURL,
		GithubURL:   f.GithubURL,
		IsFeatured:  f.IsFeatured,
	}
}

// ProjectFormFrom fills the edit form from an existing project.
func ProjectFormFrom(p Project) ProjectForm {
	return ProjectForm{
		Title:       p.Title,
		Description: p.Description,
		TechStack:   strings.Join(p.TechStack, ", "),
		ImageURL:    p.ImageURL,
		LiveURL:     p.LiveURL,
		GithubURL:   p.GithubURL,
		IsFeatured:  p.IsFeatured,
	}
}

// SplitTechStack splits a comma separated list, dropping blanks.
func SplitTechStack(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// TeamForm is the admin team member form.
type TeamForm struct {
	Name        string `json:"name" form:"name" validate:"required,min=2,max=100"`
	Role        string `json:"role" form:"role" validate:"required,min=2,max=100"`
	Bio         string `json:"bio,omitempty" form:"bio" validate:"max=500"`
	PhotoURL    string `json:"photo_url,omitempty" form:"photo_url" validate:"omitempty,url"`
	LinkedinURL string `json:"linkedin_url,omitempty" form:"linkedin_url" validate:"omitempty,url"`
	GithubURL   string `json:"github_url,omitempty" form:"github_url" validate:"omitempty,url"`
}

func (f *TeamForm) Normalize() {
	trim(&f.Name, &f.Role, &f.Bio, &f.PhotoURL, &f.LinkedinURL, &f.GithubURL)
}

// TeamFormFrom fills the edit form from an existing member.
func TeamFormFrom(m TeamMember) TeamForm {
	return TeamForm{
		Name:        m.Name,
		Role:        m.Role,
		Bio:         m.Bio,
		PhotoURL:    m.PhotoURL,
		LinkedinURL: m.LinkedinURL,
		GithubURL:   m.GithubURL,
	}
}

// OpeningForm is the admin job opening form.
type OpeningForm struct {
	Title              string  `json:"title" form:"title" validate:"required,max=200"`
	Department         string  `json:"department" form:"department" validate:"required,max=100"`
	Location           string  `json:"location" form:"location" validate:"required,max=100"`
	JobType            JobType `json:"job_type" form:"job_type" validate:"required,oneof=full-time part-time contract internship remote hybrid"`
	SalaryRange        string  `json:"salary_range,omitempty" form:"salary_range" validate:"max=100"`
	ExperienceRequired string  `json:"experience_required,omitempty" form:"experience_required" validate:"max=100"`
	Description        string  `json:"description" form:"description" validate:"required"`
	Requirements       string  `json:"requirements,omitempty" form:"requirements"`
	Benefits           string  `json:"benefits,omitempty" form:"benefits"`
	IsActive           bool    `json:"is_active" form:"is_active"`
}

func (f *OpeningForm) Normalize() {
	trim(&f.Title, &f.Department, &f.Location, &f.SalaryRange, &f.ExperienceRequired,
		&f.Description, &f.Requirements, &f.Benefits)
	f.JobType = JobType(strings.ToLower(strings.TrimSpace(string(f.JobType))))
}

// ApplicationForm is the public careers form. Resume is sent as a multipart
// file part and checked by ValidateResume.
type ApplicationForm struct {
	Name         string  `json:"name" form:"name" validate:"required,max=200"`
	Email        string  `json:"email" form:"email" validate:"required,email"`
	Phone        string  `json:"phone,omitempty" form:"phone" validate:"max=20"`
	CoverLetter  string  `json:"cover_letter,omitempty" form:"cover_letter"`
	PortfolioURL string  `json:"portfolio_url,omitempty" form:"portfolio_url" validate:"omitempty,url"`
	JobID        int     `json:"job_id" form:"job_id" validate:"gt=0"`
	JobTitle     string  `json:"job_title" form:"job_title" validate:"required"`
	Resume       *Upload `json:"-" form:"-" validate:"-"`
	// ResumeLimit overrides MaxResumeBytes when positive.
	ResumeLimit int64 `json:"-" form:"-" validate:"-"`
}

func (f *ApplicationForm) Normalize() {
	trim(&f.Name, &f.Email, &f.Phone, &f.CoverLetter, &f.PortfolioURL, &f.JobTitle)
	f.Email = strings.ToLower(f.Email)
}

func (f *ApplicationForm) check() []FieldError {
	if err := ValidateResume(f.Resume, f.ResumeLimit); err != nil {
		return []FieldError{{Field: "resume", Message: err.Error()}}
	}
	return nil
}

// LoginForm carries credentials for the password grant.
type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

func (f *LoginForm) Normalize() {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// SignupForm registers a new account.
type SignupForm struct {
	FullName string `json:"full_name" form:"full_name" validate:"required,min=2,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=100"`
}

func (f *SignupForm) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// ProfileForm edits user metadata.
type ProfileForm struct {
	FullName  string `json:"full_name" form:"full_name" validate:"required,min=2,max=100"`
	Location  string `json:"location,omitempty" form:"location" validate:"max=100"`
	Education string `json:"education,omitempty" form:"education" validate:"max=200"`
}

func (f *ProfileForm) Normalize() {
	trim(&f.FullName, &f.Location, &f.Education)
}
