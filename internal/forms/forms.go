// Package forms validates and sanitizes the public form submissions before
// they are interpolated into email templates. Validation failures are
// request-local: they never feed back into the admission guard.
package forms

import (
	"fmt"
	"html"
	"net/mail"
	"regexp"
	"strings"
)

// Per-field length ceilings.
const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxMessageLength = 5000
	MaxTitleLength   = 200
	MaxPhoneLength   = 20
	MaxBrowserLength = 100
)

// PriorityDefault is assigned when a form carries no priority of its own.
const PriorityDefault = "Medium"

// ValidationError is a request-local 400-class failure naming the problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ContactRequest is the raw contact form payload.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactSubmission is the sanitized contact form field set.
type ContactSubmission struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// FeatureRequest is the raw feature request payload.
type FeatureRequest struct {
	FeatureTitle       string `json:"featureTitle"`
	FeatureDescription string `json:"featureDescription"`
	ProblemSolved      string `json:"problemSolved"`
	Email              string `json:"email"`
}

// FeatureSubmission is the sanitized feature request field set. Priority is
// always the default; feature requests do not accept a caller-supplied one.
type FeatureSubmission struct {
	Title         string
	Description   string
	ProblemSolved string
	Email         string
	Priority      string
}

// BugRequest is the raw bug report payload.
type BugRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Steps       string `json:"steps"`
	Browser     string `json:"browser"`
	DeviceInfo  string `json:"deviceInfo"`
	Priority    string `json:"priority"`
}

// BugSubmission is the sanitized bug report field set.
type BugSubmission struct {
	Name        string
	Email       string
	Title       string
	Description string
	Steps       string
	Browser     string
	DeviceInfo  string
	Priority    string
}

var phoneStrip = regexp.MustCompile(`[^\d+\-\s()]`)

// bugPriorities is the accepted set for bug reports, mixed case as the
// original forms accepted, mapped to canonical case. Other form types do
// not consult this set.
var bugPriorities = map[string]string{
	"Low": "Low", "Medium": "Medium", "High": "High",
	"low": "Low", "medium": "Medium", "high": "High",
}

// sanitize trims and HTML-escapes a free-text field so it is inert when
// later interpolated into email HTML.
func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// CleanPhone strips everything but digits, '+', '-', spaces and parentheses.
func CleanPhone(phone string) string {
	if phone == "" {
		return ""
	}
	return phoneStrip.ReplaceAllString(phone, "")
}

type field struct {
	name  string
	value string
}

func missingFields(fields []field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func requireFields(fields []field) error {
	if missing := missingFields(fields); len(missing) > 0 {
		return validationErrorf("Missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func checkLength(value string, max int, fieldName string) error {
	if len(value) > max {
		return validationErrorf("%s must be less than %d characters", fieldName, max)
	}
	return nil
}

// ValidEmail reports whether the address parses as a bare RFC 5322 address
// within the length ceiling.
func ValidEmail(email string) bool {
	if email == "" || len(email) > MaxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ValidateContact checks and sanitizes a contact form payload.
func ValidateContact(req ContactRequest) (*ContactSubmission, error) {
	if err := requireFields([]field{
		{"name", req.Name},
		{"email", req.Email},
		{"message", req.Message},
	}); err != nil {
		return nil, err
	}

	if !ValidEmail(req.Email) {
		return nil, validationErrorf("Invalid email format")
	}
	for _, check := range []struct {
		value string
		max   int
		name  string
	}{
		{req.Name, MaxNameLength, "Name"},
		{req.Message, MaxMessageLength, "Message"},
		{req.Subject, MaxTitleLength, "Subject"},
		{req.Phone, MaxPhoneLength, "Phone"},
	} {
		if err := checkLength(check.value, check.max, check.name); err != nil {
			return nil, err
		}
	}

	return &ContactSubmission{
		Name:    sanitize(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   CleanPhone(sanitize(req.Phone)),
		Subject: sanitize(req.Subject),
		Message: sanitize(req.Message),
	}, nil
}

// ValidateFeature checks and sanitizes a feature request payload. Email is
// optional; when absent the acknowledgment email is simply skipped.
func ValidateFeature(req FeatureRequest) (*FeatureSubmission, error) {
	if err := requireFields([]field{
		{"featureTitle", req.FeatureTitle},
		{"featureDescription", req.FeatureDescription},
	}); err != nil {
		return nil, err
	}

	if req.Email != "" && !ValidEmail(req.Email) {
		return nil, validationErrorf("Invalid email format")
	}
	for _, check := range []struct {
		value string
		max   int
		name  string
	}{
		{req.FeatureTitle, MaxTitleLength, "Feature Title"},
		{req.FeatureDescription, MaxMessageLength, "Feature Description"},
		{req.ProblemSolved, MaxMessageLength, "Problem Description"},
	} {
		if err := checkLength(check.value, check.max, check.name); err != nil {
			return nil, err
		}
	}

	return &FeatureSubmission{
		Title:         sanitize(req.FeatureTitle),
		Description:   sanitize(req.FeatureDescription),
		ProblemSolved: sanitize(req.ProblemSolved),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Priority:      PriorityDefault,
	}, nil
}

// ValidateBug checks and sanitizes a bug report payload.
func ValidateBug(req BugRequest) (*BugSubmission, error) {
	if err := requireFields([]field{
		{"name", req.Name},
		{"email", req.Email},
		{"title", req.Title},
		{"description", req.Description},
		{"steps", req.Steps},
		{"browser", req.Browser},
		{"deviceInfo", req.DeviceInfo},
	}); err != nil {
		return nil, err
	}

	if !ValidEmail(req.Email) {
		return nil, validationErrorf("Invalid email format")
	}
	for _, check := range []struct {
		value string
		max   int
		name  string
	}{
		{req.Name, MaxNameLength, "Name"},
		{req.Title, MaxTitleLength, "Title"},
		{req.Description, MaxMessageLength, "Description"},
		{req.Steps, MaxMessageLength, "Steps"},
		{req.DeviceInfo, MaxMessageLength, "Device Info"},
		{req.Browser, MaxBrowserLength, "Browser"},
	} {
		if err := checkLength(check.value, check.max, check.name); err != nil {
			return nil, err
		}
	}

	priority := PriorityDefault
	if req.Priority != "" {
		canonical, ok := bugPriorities[req.Priority]
		if !ok {
			return nil, validationErrorf("Priority must be Low, Medium, or High")
		}
		priority = canonical
	}

	return &BugSubmission{
		Name:        sanitize(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Title:       sanitize(req.Title),
		Description: sanitize(req.Description),
		Steps:       sanitize(req.Steps),
		Browser:     sanitize(req.Browser),
		DeviceInfo:  sanitize(req.DeviceInfo),
		Priority:    priority,
	}, nil
}
