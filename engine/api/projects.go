package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/focitech/focitech/engine/resource"
)

// ProjectFilter narrows the portfolio listing on the server.
type ProjectFilter struct {
	Tech   string
	Search string
}

// ProjectService wraps /portfolio.
type ProjectService struct {
	client *Client
}

func (s *ProjectService) List(ctx context.Context, filter ProjectFilter) ([]resource.Project, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/portfolio", queryParams(map[string]string{
		"tech":   filter.Tech,
		"search": filter.Search,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	out := []resource.Project{}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProjectService) Get(ctx context.Context, id int) (*resource.Project, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/portfolio/%d", id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	var out resource.Project
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProjectService) Create(ctx context.Context, form resource.ProjectForm) (*resource.Project, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/portfolio", jsonBody(form.Input()))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	var out resource.Project
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProjectService) Update(ctx context.Context, id int, form resource.ProjectForm) (*resource.Project, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	resp, err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/portfolio/%d", id), jsonBody(form.Input()))
	if err != nil {
		return nil, fmt.Errorf("failed to update project %d: %w", id, err)
	}
	out := resource.Project{ID: id}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProjectService) Delete(ctx context.Context, id int) error {
	if _, err := s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/portfolio/%d", id), nil); err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	return nil
}
