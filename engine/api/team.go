package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/focitech/focitech/engine/resource"
)

// TeamService wraps /corporate.
type TeamService struct {
	client *Client
}

func (s *TeamService) List(ctx context.Context) ([]resource.TeamMember, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/corporate", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}
	out := []resource.TeamMember{}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TeamService) Get(ctx context.Context, id int) (*resource.TeamMember, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/corporate/%d", id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get team member %d: %w", id, err)
	}
	var out resource.TeamMember
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TeamService) Create(ctx context.Context, form resource.TeamForm) (*resource.TeamMember, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/corporate", jsonBody(form))
	if err != nil {
		return nil, fmt.Errorf("failed to create team member: %w", err)
	}
	var out resource.TeamMember
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TeamService) Update(ctx context.Context, id int, form resource.TeamForm) (*resource.TeamMember, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	resp, err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/corporate/%d", id), jsonBody(form))
	if err != nil {
		return nil, fmt.Errorf("failed to update team member %d: %w", id, err)
	}
	out := resource.TeamMember{ID: id}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TeamService) Delete(ctx context.Context, id int) error {
	if _, err := s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/corporate/%d", id), nil); err != nil {
		return fmt.Errorf("failed to delete team member %d: %w", id, err)
	}
	return nil
}
