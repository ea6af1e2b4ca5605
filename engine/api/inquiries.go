package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/focitech/focitech/engine/resource"
)

// InquiryService wraps /contact.
type InquiryService struct {
	client *Client
}

func (s *InquiryService) List(ctx context.Context) ([]resource.Inquiry, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/contact", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	out := []resource.Inquiry{}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create validates and submits the public contact form.
func (s *InquiryService) Create(ctx context.Context, form resource.ContactForm) (*resource.Inquiry, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/contact", jsonBody(form))
	if err != nil {
		return nil, fmt.Errorf("failed to submit inquiry: %w", err)
	}
	var out resource.Inquiry
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InquiryService) UpdateStatus(
	ctx context.Context,
	id int,
	status resource.InquiryStatus,
) (*resource.Inquiry, error) {
	if !status.Valid() {
		return nil, &resource.ValidationError{Fields: []resource.FieldError{
			{Field: "status", Message: fmt.Sprintf("status %q is not allowed", status)},
		}}
	}
	body := map[string]string{"status": string(status)}
	resp, err := s.client.doRequest(ctx, http.MethodPut, fmt.Sprintf("/contact/%d", id), jsonBody(body))
	if err != nil {
		return nil, fmt.Errorf("failed to update inquiry %d: %w", id, err)
	}
	out := resource.Inquiry{ID: id, Status: status}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InquiryService) Delete(ctx context.Context, id int) error {
	if _, err := s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/contact/%d", id), nil); err != nil {
		return fmt.Errorf("failed to delete inquiry %d: %w", id, err)
	}
	return nil
}
