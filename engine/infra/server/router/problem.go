package router

import "net/http"

// Problem is an RFC 7807 error document. Code is the stable machine code;
// Fields carries per-field validation messages when a form was rejected.
type Problem struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Code     string
	Fields   map[string]string
}

func (p *Problem) normalize() *Problem {
	if p == nil {
		p = &Problem{}
	}
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Code == "" {
		p.Code = ErrInternalCode
	}
	return p
}

func (p *Problem) body() map[string]any {
	body := map[string]any{
		"type":   p.Type,
		"status": p.Status,
		"error":  p.Title,
		"code":   p.Code,
	}
	if p.Detail != "" {
		body["detail"] = p.Detail
	}
	if p.Instance != "" {
		body["instance"] = p.Instance
	}
	if len(p.Fields) > 0 {
		body["fields"] = p.Fields
	}
	return body
}
