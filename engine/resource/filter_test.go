package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func projectIDs(ps []Project) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFilterProjects(t *testing.T) {
	projects := []Project{
		{ID: 1, Title: "Focitech CRM", TechStack: []string{"React", "FastAPI"}},
		{ID: 2, Title: "Clinic Portal", TechStack: []string{"Next.js", "Supabase"}, IsFeatured: true},
		{ID: 3, Title: "Data Pipeline", TechStack: []string{"Python"}},
	}

	t.Run("Should keep everything for All and an empty query", func(t *testing.T) {
		assert.Equal(t, []int{1, 2, 3}, projectIDs(FilterProjects(projects, AllTech, "")))
		assert.Equal(t, []int{1, 2, 3}, projectIDs(FilterProjects(projects, "", " ")))
	})

	t.Run("Should filter by tech category", func(t *testing.T) {
		assert.Equal(t, []int{2}, projectIDs(FilterProjects(projects, "Supabase", "")))
	})

	t.Run("Should search titles and stack entries ignoring case", func(t *testing.T) {
		assert.Equal(t, []int{1}, projectIDs(FilterProjects(projects, "", "crm")))
		assert.Equal(t, []int{1}, projectIDs(FilterProjects(projects, "", "FASTapi")))
		assert.Empty(t, FilterProjects(projects, "React", "pipeline"))
	})

	t.Run("Should prefer flagged projects as featured", func(t *testing.T) {
		assert.Equal(t, []int{2}, projectIDs(Featured(projects, 3)))
		assert.Equal(t, []int{1, 3}, projectIDs(Featured([]Project{projects[0], projects[2]}, 3)))
		assert.Len(t, Featured(projects[:1], 0), 0)
	})
}

func TestFilterOpenings(t *testing.T) {
	openings := []JobOpening{
		{ID: 1, Department: "Engineering", Location: "Remote", JobType: JobFullTime, IsActive: true},
		{ID: 2, Department: "Design", Location: "Hybrid (Bareilly)", JobType: JobContract, IsActive: true},
		{ID: 3, Department: "Engineering", Location: "Remote", JobType: JobInternship, IsActive: false},
		{ID: 4, Department: "engineering", Location: "Remote", JobType: JobInternship, IsActive: true},
	}

	t.Run("Should hide inactive openings", func(t *testing.T) {
		assert.Len(t, FilterOpenings(openings, OpeningFilter{}), 3)
	})

	t.Run("Should combine filters", func(t *testing.T) {
		got := FilterOpenings(openings, OpeningFilter{Department: "Engineering", JobType: JobInternship})
		assert.Len(t, got, 1)
		assert.Equal(t, 4, got[0].ID)
	})

	t.Run("Should list distinct active departments", func(t *testing.T) {
		assert.Equal(t, []string{"Engineering", "Design", "engineering"}, Departments(openings))
	})
}
