package resource

import (
	"strings"

	"golang.org/x/text/cases"
)

// AllTech is the catch-all project category.
const AllTech = "All"

// TechCategories are the project filter chips, in display order.
var TechCategories = []string{AllTech, "React", "FastAPI", "Next.js", "Python", "Supabase", "Node.js"}

// FilterProjects keeps projects using tech (AllTech or empty keeps all) whose
// title or any stack entry contains query, ignoring case.
func FilterProjects(projects []Project, tech, query string) []Project {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if tech != "" && tech != AllTech && !p.HasTech(tech) {
			continue
		}
		if needle != "" && !projectMatches(fold, p, needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func projectMatches(fold cases.Caser, p Project, needle string) bool {
	if strings.Contains(fold.String(p.Title), needle) {
		return true
	}
	for _, t := range p.TechStack {
		if strings.Contains(fold.String(t), needle) {
			return true
		}
	}
	return false
}

// Featured returns the featured projects, or the first n when none are
// flagged.
func Featured(projects []Project, n int) []Project {
	var out []Project
	for _, p := range projects {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = projects
	}
	return out[:min(n, len(out))]
}

// OpeningFilter narrows the public careers listing. Empty fields match all.
type OpeningFilter struct {
	Department string
	Location   string
	JobType    JobType
}

// FilterOpenings keeps active openings matching f.
func FilterOpenings(openings []JobOpening, f OpeningFilter) []JobOpening {
	out := make([]JobOpening, 0, len(openings))
	for _, o := range openings {
		if !o.IsActive {
			continue
		}
		if f.Department != "" && !strings.EqualFold(o.Department, f.Department) {
			continue
		}
		if f.Location != "" && !strings.EqualFold(o.Location, f.Location) {
			continue
		}
		if f.JobType != "" && o.JobType != f.JobType {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Departments lists the distinct departments of active openings in first-seen
// order.
func Departments(openings []JobOpening) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range openings {
		if o.IsActive && o.Department != "" && !seen[o.Department] {
			seen[o.Department] = true
			out = append(out, o.Department)
		}
	}
	return out
}
