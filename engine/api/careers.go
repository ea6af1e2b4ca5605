package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/focitech/focitech/engine/resource"
	"github.com/go-resty/resty/v2"
)

// OpeningFilter narrows the openings listing on the server.
type OpeningFilter struct {
	Department string
	Location   string
	JobType    string
}

// ApplicationFilter narrows the applications listing on the server.
type ApplicationFilter struct {
	Status resource.ApplicationStatus
	JobID  int
}

// CareerService wraps /careers.
type CareerService struct {
	client *Client
}

func (s *CareerService) ListOpenings(ctx context.Context, filter OpeningFilter) ([]resource.JobOpening, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/careers/openings", queryParams(map[string]string{
		"department": filter.Department,
		"location":   filter.Location,
		"job_type":   filter.JobType,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list openings: %w", err)
	}
	out := []resource.JobOpening{}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CareerService) CreateOpening(ctx context.Context, form resource.OpeningForm) (*resource.JobOpening, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/careers/openings", jsonBody(form))
	if err != nil {
		return nil, fmt.Errorf("failed to create opening: %w", err)
	}
	var out resource.JobOpening
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CareerService) DeleteOpening(ctx context.Context, id int) error {
	path := fmt.Sprintf("/careers/openings/%d", id)
	if _, err := s.client.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("failed to delete opening %d: %w", id, err)
	}
	return nil
}

// Apply validates the form, resume included, and posts it as multipart.
// Nothing is sent when validation fails.
func (s *CareerService) Apply(ctx context.Context, form resource.ApplicationForm) (*resource.Application, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"name":      form.Name,
		"email":     form.Email,
		"job_id":    strconv.Itoa(form.JobID),
		"job_title": form.JobTitle,
	}
	for k, v := range map[string]string{
		"phone":         form.Phone,
		"cover_letter":  form.CoverLetter,
		"portfolio_url": form.PortfolioURL,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	resume := form.Resume
	build := func(req *resty.Request) {
		req.SetMultipartFormData(fields).
			SetMultipartField("resume", resume.Filename, resume.ContentType(), bytes.NewReader(resume.Data))
	}
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/careers/apply", build)
	if err != nil {
		return nil, fmt.Errorf("failed to submit application: %w", err)
	}
	var out resource.Application
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CareerService) ListApplications(
	ctx context.Context,
	filter ApplicationFilter,
) ([]resource.Application, error) {
	params := map[string]string{"status": string(filter.Status)}
	if filter.JobID > 0 {
		params["job_id"] = strconv.Itoa(filter.JobID)
	}
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/careers/applications", queryParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	out := []resource.Application{}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CareerService) UpdateApplicationStatus(
	ctx context.Context,
	id int,
	status resource.ApplicationStatus,
) (*resource.Application, error) {
	if !status.Valid() {
		return nil, &resource.ValidationError{Fields: []resource.FieldError{
			{Field: "status", Message: fmt.Sprintf("status %q is not allowed", status)},
		}}
	}
	path := fmt.Sprintf("/careers/applications/%d/status", id)
	resp, err := s.client.doRequest(ctx, http.MethodPut, path, jsonBody(map[string]string{"status": string(status)}))
	if err != nil {
		return nil, fmt.Errorf("failed to update application %d: %w", id, err)
	}
	out := resource.Application{ID: id, Status: status}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CareerService) DeleteApplication(ctx context.Context, id int) error {
	path := fmt.Sprintf("/careers/applications/%d", id)
	if _, err := s.client.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("failed to delete application %d: %w", id, err)
	}
	return nil
}
