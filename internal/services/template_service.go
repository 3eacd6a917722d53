package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/beatplayr/backend/internal/forms"
)

// baseStyle is the inline stylesheet shared by every outgoing email.
const baseStyle = `
<style>
  body {
    font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    line-height: 1.6;
    color: #333;
    margin: 0;
    padding: 0;
    background-color: #f4f4f4;
  }
  .container {
    max-width: 600px;
    margin: 20px auto;
    background-color: #ffffff;
    border-radius: 8px;
    overflow: hidden;
    box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
  }
  .header {
    background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    color: white;
    padding: 30px 20px;
    text-align: center;
  }
  .header h2 {
    margin: 0;
    font-size: 24px;
    font-weight: 600;
  }
  .content {
    padding: 30px 20px;
  }
  .highlight {
    background-color: #f8f9ff;
    padding: 15px;
    border-left: 4px solid #667eea;
    margin: 15px 0;
    border-radius: 4px;
  }
  .footer {
    background-color: #f8f9fa;
    padding: 20px;
    text-align: center;
    font-size: 12px;
    color: #6c757d;
    border-top: 1px solid #dee2e6;
  }
  .info-row {
    margin: 10px 0;
    padding: 8px 0;
    border-bottom: 1px solid #eee;
  }
  .info-label {
    font-weight: 600;
    color: #495057;
  }
  .priority-high { color: #dc3545; font-weight: bold; }
  .priority-medium { color: #fd7e14; font-weight: bold; }
  .priority-low { color: #28a745; font-weight: bold; }
  .brand {
    color: #667eea;
    font-weight: 600;
  }
  .submission-id {
    font-family: monospace;
    font-size: 11px;
    color: #6c757d;
    margin-top: 10px;
  }
</style>
`

const contactUserTemplate = `{{.Style}}
<div class="container">
  <div class="header">
    <h2>&#127925; Thank You for Contacting BeatPlayr!</h2>
  </div>
  <div class="content">
    <p>Dear <strong>{{.Name}}</strong>,</p>
    <p>Thank you for reaching out to us. We have received your message and our team will get back to you within 24-48 hours.</p>
    <div class="highlight">
      <div class="info-label">Your Message:</div>
      <div style="margin-top: 8px;">{{.Message}}</div>
    </div>
    {{if .Subject}}<p><strong>Subject:</strong> {{.Subject}}</p>{{end}}
    <p>We appreciate your interest in <span class="brand">BeatPlayr</span> and look forward to assisting you!</p>
    <p>Best regards,<br><span class="brand">BeatPlayr Team</span></p>
  </div>
  <div class="footer">
    <p>This is an automated response. Please do not reply to this email.</p>
    <p>&copy; 2024 BeatPlayr. All rights reserved.</p>
  </div>
</div>
`

const contactAdminTemplate = `{{.Style}}
<div class="container">
  <div class="header">
    <h2>&#128231; New Contact Form Submission</h2>
  </div>
  <div class="content">
    <div class="info-row">
      <span class="info-label">Name:</span> {{.Name}}
    </div>
    <div class="info-row">
      <span class="info-label">Email:</span> {{.Email}}
    </div>
    {{if .Phone}}<div class="info-row"><span class="info-label">Phone:</span> {{.Phone}}</div>{{end}}
    <div class="info-row">
      <span class="info-label">Subject:</span> {{if .Subject}}{{.Subject}}{{else}}General Inquiry{{end}}
    </div>
    <div class="highlight">
      <div class="info-label">Message:</div>
      <div style="margin-top: 8px; white-space: pre-wrap;">{{.Message}}</div>
    </div>
    <div class="info-row">
      <span class="info-label">Submitted at:</span> {{.SubmittedAt}}
    </div>
    <div class="submission-id">Submission ID: {{.SubmissionID}}</div>
  </div>
</div>
`

const featureUserTemplate = `{{.Style}}
<div class="container">
  <div class="header">
    <h2>&#128161; Feature Recommendation Received!</h2>
  </div>
  <div class="content">
    <p>Thank you for your valuable feature recommendation! Your input helps us make <span class="brand">BeatPlayr</span> even better.</p>
    <div class="highlight">
      <div class="info-label">Feature: {{.Title}}</div>
      <div style="margin-top: 8px;">{{.Description}}</div>
      {{if .ProblemSolved}}<div style="margin-top: 8px;"><span class="info-label">Problem Solved:</span> {{.ProblemSolved}}</div>{{end}}
      <div style="margin-top: 8px;"><span class="info-label">Priority:</span> <span class="priority-{{.PriorityClass}}">{{.Priority}}</span></div>
    </div>
    <p>Our development team will review your suggestion and consider it for future updates. We may reach out if we need any clarification.</p>
    <p>Keep the great ideas coming!</p>
    <p>Best regards,<br><span class="brand">BeatPlayr Development Team</span></p>
  </div>
  <div class="footer">
    <p>Your feedback shapes the future of BeatPlayr!</p>
    <p>&copy; 2024 BeatPlayr. All rights reserved.</p>
  </div>
</div>
`

const featureAdminTemplate = `{{.Style}}
<div class="container">
  <div class="header">
    <h2>&#128161; New Feature Recommendation</h2>
  </div>
  <div class="content">
    {{if .Email}}<div class="info-row">
      <span class="info-label">Email:</span> {{.Email}}
    </div>{{end}}
    <div class="info-row">
      <span class="info-label">Feature Title:</span> {{.Title}}
    </div>
    <div class="info-row">
      <span class="info-label">Priority:</span> <span class="priority-{{.PriorityClass}}">{{.Priority}}</span>
    </div>
    <div class="highlight">
      <div class="info-label">Description:</div>
      <div style="margin-top: 8px; white-space: pre-wrap;">{{.Description}}</div>
    </div>
    {{if .ProblemSolved}}<div class="highlight">
      <div class="info-label">Problem Solved:</div>
      <div style="margin-top: 8px; white-space: pre-wrap;">{{.ProblemSolved}}</div>
    </div>{{end}}
    <div class="info-row">
      <span class="info-label">Submitted at:</span> {{.SubmittedAt}}
    </div>
    <div class="submission-id">Submission ID: {{.SubmissionID}}</div>
  </div>
</div>
`

const bugUserTemplate = `{{.Style}}
<div class="container">
  <div class="header">
    <h2>&#128027; Bug Report Received</h2>
  </div>
  <div class="content">
    <p>Dear <strong>{{.Name}}</strong>,</p>
    <p>Thank you for reporting this bug! We take all bug reports seriously and will investigate this issue promptly.</p>
    <div class="highlight">
      <div class="info-label">Bug: {{.Title}}</div>
      <div style="margin-top: 8px;">{{.Description}}</div>
      <div style="margin-top: 8px;"><span class="info-label">Priority:</span> <span class="priority-{{.PriorityClass}}">{{.Priority}}</span></div>
      {{if .Browser}}<div style="margin-top: 8px;"><span class="info-label">Browser/Device:</span> {{.Browser}}/{{.DeviceInfo}}</div>{{end}}
      <div style="margin-top: 8px;"><span class="info-label">Steps to Reproduce:</span> {{.Steps}}</div>
    </div>
    <p>We'll keep you updated on the progress of this fix. Our development team will investigate and work on a solution.</p>
    <p>Thank you for helping us improve <span class="brand">BeatPlayr</span>!</p>
    <p>Best regards,<br><span class="brand">BeatPlayr Development Team</span></p>
  </div>
  <div class="footer">
    <p>Help us improve by reporting bugs!</p>
    <p>&copy; 2024 BeatPlayr. All rights reserved.</p>
  </div>
</div>
`

const bugAdminTemplate = `{{.Style}}
<div class="container">
  <div class="header">
    <h2>&#128027; New Bug Report</h2>
  </div>
  <div class="content">
    <div class="info-row">
      <span class="info-label">Reporter:</span> {{.Name}}
    </div>
    <div class="info-row">
      <span class="info-label">Email:</span> {{.Email}}
    </div>
    <div class="info-row">
      <span class="info-label">Bug Title:</span> {{.Title}}
    </div>
    <div class="info-row">
      <span class="info-label">Priority:</span> <span class="priority-{{.PriorityClass}}">{{.Priority}}</span>
    </div>
    {{if .Browser}}<div class="info-row"><span class="info-label">Browser/Device:</span> {{.Browser}}</div>{{end}}
    {{if .UserAgent}}<div class="info-row"><span class="info-label">Client:</span> {{.UserAgent}}</div>{{end}}
    <div class="highlight">
      <div class="info-label">Bug Description:</div>
      <div style="margin-top: 8px; white-space: pre-wrap;">{{.Description}}</div>
    </div>
    {{if .Steps}}<div class="highlight">
      <div class="info-label">Steps to Reproduce:</div>
      <div style="margin-top: 8px; white-space: pre-wrap;">{{.Steps}}</div>
    </div>{{end}}
    <div class="info-row">
      <span class="info-label">Submitted at:</span> {{.SubmittedAt}}
    </div>
    <div class="submission-id">Submission ID: {{.SubmissionID}}</div>
  </div>
</div>
`

// Email is a rendered message ready for the mailer.
type Email struct {
	Subject string
	HTML    string
}

// TemplateService renders the user acknowledgment and admin notification
// emails. Submission fields arrive already HTML-escaped from validation;
// htmlize only restores line structure.
type TemplateService struct {
	templates *template.Template
}

// NewTemplateService parses the built-in email templates.
func NewTemplateService() (*TemplateService, error) {
	root := template.New("emails")
	for name, text := range map[string]string{
		"contact_user":  contactUserTemplate,
		"contact_admin": contactAdminTemplate,
		"feature_user":  featureUserTemplate,
		"feature_admin": featureAdminTemplate,
		"bug_user":      bugUserTemplate,
		"bug_admin":     bugAdminTemplate,
	} {
		if _, err := root.New(name).Parse(text); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}
	return &TemplateService{templates: root}, nil
}

// htmlize converts escaped plain text into display-ready HTML, turning
// newlines into <br> and tabs into spacing. Input must already be escaped.
func htmlize(escaped string) template.HTML {
	s := strings.ReplaceAll(escaped, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "<br>")
	s = strings.ReplaceAll(s, "\t", "&nbsp;&nbsp;&nbsp;&nbsp;")
	return template.HTML(s)
}

// formatDate renders the submission time the way the emails display it.
func formatDate(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM MST")
}

func (s *TemplateService) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

type contactEmailData struct {
	Style        template.HTML
	Name         template.HTML
	Email        string
	Phone        template.HTML
	Subject      template.HTML
	Message      template.HTML
	SubmittedAt  string
	SubmissionID string
}

// ContactUser renders the acknowledgment email for a contact submission.
func (s *TemplateService) ContactUser(sub *forms.ContactSubmission) (Email, error) {
	html, err := s.render("contact_user", contactEmailData{
		Style:   baseStyle,
		Name:    htmlize(sub.Name),
		Subject: htmlize(sub.Subject),
		Message: htmlize(sub.Message),
	})
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: "Thank you for contacting BeatPlayr!", HTML: html}, nil
}

// ContactAdmin renders the admin notification for a contact submission.
func (s *TemplateService) ContactAdmin(sub *forms.ContactSubmission, submissionID string, at time.Time) (Email, error) {
	html, err := s.render("contact_admin", contactEmailData{
		Style:        baseStyle,
		Name:         htmlize(sub.Name),
		Email:        sub.Email,
		Phone:        htmlize(sub.Phone),
		Subject:      htmlize(sub.Subject),
		Message:      htmlize(sub.Message),
		SubmittedAt:  formatDate(at),
		SubmissionID: submissionID,
	})
	if err != nil {
		return Email{}, err
	}
	subject := "New Contact Form: General Inquiry"
	if sub.Subject != "" {
		subject = "New Contact Form: " + sub.Subject
	}
	return Email{Subject: subject, HTML: html}, nil
}

type featureEmailData struct {
	Style         template.HTML
	Email         string
	Title         template.HTML
	Description   template.HTML
	ProblemSolved template.HTML
	Priority      string
	PriorityClass string
	SubmittedAt   string
	SubmissionID  string
}

// FeatureUser renders the acknowledgment email for a feature request.
func (s *TemplateService) FeatureUser(sub *forms.FeatureSubmission) (Email, error) {
	html, err := s.render("feature_user", featureEmailData{
		Style:         baseStyle,
		Title:         htmlize(sub.Title),
		Description:   htmlize(sub.Description),
		ProblemSolved: htmlize(sub.ProblemSolved),
		Priority:      sub.Priority,
		PriorityClass: strings.ToLower(sub.Priority),
	})
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: "Thank you for your feature recommendation!", HTML: html}, nil
}

// FeatureAdmin renders the admin notification for a feature request.
func (s *TemplateService) FeatureAdmin(sub *forms.FeatureSubmission, submissionID string, at time.Time) (Email, error) {
	html, err := s.render("feature_admin", featureEmailData{
		Style:         baseStyle,
		Email:         sub.Email,
		Title:         htmlize(sub.Title),
		Description:   htmlize(sub.Description),
		ProblemSolved: htmlize(sub.ProblemSolved),
		Priority:      sub.Priority,
		PriorityClass: strings.ToLower(sub.Priority),
		SubmittedAt:   formatDate(at),
		SubmissionID:  submissionID,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: "New Feature Request: " + sub.Title, HTML: html}, nil
}

type bugEmailData struct {
	Style         template.HTML
	Name          template.HTML
	Email         string
	Title         template.HTML
	Description   template.HTML
	Steps         template.HTML
	Browser       template.HTML
	DeviceInfo    template.HTML
	UserAgent     template.HTML
	Priority      string
	PriorityClass string
	SubmittedAt   string
	SubmissionID  string
}

// BugUser renders the acknowledgment email for a bug report.
func (s *TemplateService) BugUser(sub *forms.BugSubmission) (Email, error) {
	html, err := s.render("bug_user", bugEmailData{
		Style:         baseStyle,
		Name:          htmlize(sub.Name),
		Title:         htmlize(sub.Title),
		Description:   htmlize(sub.Description),
		Steps:         htmlize(sub.Steps),
		Browser:       htmlize(sub.Browser),
		DeviceInfo:    htmlize(sub.DeviceInfo),
		Priority:      sub.Priority,
		PriorityClass: strings.ToLower(sub.Priority),
	})
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: "Bug report received - We're on it!", HTML: html}, nil
}

// BugAdmin renders the admin notification for a bug report. userAgent is a
// pre-parsed browser summary for the reporting client, not the raw header.
func (s *TemplateService) BugAdmin(sub *forms.BugSubmission, userAgent, submissionID string, at time.Time) (Email, error) {
	html, err := s.render("bug_admin", bugEmailData{
		Style:         baseStyle,
		Name:          htmlize(sub.Name),
		Email:         sub.Email,
		Title:         htmlize(sub.Title),
		Description:   htmlize(sub.Description),
		Steps:         htmlize(sub.Steps),
		Browser:       htmlize(sub.Browser),
		DeviceInfo:    htmlize(sub.DeviceInfo),
		UserAgent:     htmlize(userAgent),
		Priority:      sub.Priority,
		PriorityClass: strings.ToLower(sub.Priority),
		SubmittedAt:   formatDate(at),
		SubmissionID:  submissionID,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: "Bug Report: " + sub.Title, HTML: html}, nil
}
