package resource

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// InquiryStatus tracks how a lead has been handled.
type InquiryStatus string

const (
	InquiryPending  InquiryStatus = "pending"
	InquiryResolved InquiryStatus = "resolved"
	InquirySpam     InquiryStatus = "spam"
)

// InquiryStatuses lists the accepted values in display order.
var InquiryStatuses = []InquiryStatus{InquiryPending, InquiryResolved, InquirySpam}

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryPending, InquiryResolved, InquirySpam:
		return true
	}
	return false
}

func (s InquiryStatus) Label() string {
	return label(string(s))
}

// ApplicationStatus is the hiring stage of an application.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationReviewing   ApplicationStatus = "reviewing"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationHired       ApplicationStatus = "hired"
)

// ApplicationStatuses lists the accepted values in pipeline order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationReviewing,
	ApplicationShortlisted,
	ApplicationRejected,
	ApplicationHired,
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationReviewing, ApplicationShortlisted, ApplicationRejected, ApplicationHired:
		return true
	}
	return false
}

func (s ApplicationStatus) Label() string {
	return label(string(s))
}

// JobType is the engagement model of an opening.
type JobType string

const (
	JobFullTime   JobType = "full-time"
	JobPartTime   JobType = "part-time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
	JobRemote     JobType = "remote"
	JobHybrid     JobType = "hybrid"
)

var JobTypes = []JobType{JobFullTime, JobPartTime, JobContract, JobInternship, JobRemote, JobHybrid}

func (t JobType) Label() string {
	return label(string(t))
}

// Label renders a raw enum value such as "full-time" as "Full Time".
func Label(raw string) string {
	return label(raw)
}

func label(raw string) string {
	if raw == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(raw, "-", " "))
}
