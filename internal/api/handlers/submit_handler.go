package handlers

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mssola/useragent"
	"github.com/sirupsen/logrus"

	"github.com/beatplayr/backend/internal/api/middleware"
	"github.com/beatplayr/backend/internal/forms"
	"github.com/beatplayr/backend/internal/metrics"
	"github.com/beatplayr/backend/internal/services"
	"github.com/beatplayr/backend/internal/util"
)

// Success and failure messages returned to the frontend.
const (
	msgContactSubmitted = "Contact form submitted successfully. We'll get back to you soon!"
	msgFeatureSubmitted = "Feature request submitted successfully. Thank you for your suggestion!"
	msgBugSubmitted     = "Bug report submitted successfully. We'll investigate this issue!"
	msgEmailSendFailed  = "Failed to send email"
	msgInvalidBody      = "Invalid request body"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSubmissionID returns a short tracking id: millisecond timestamp in
// base36 plus a random suffix. Not a secret, just unique enough to grep
// logs and email footers by.
func newSubmissionID() string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + string(suffix)
}

// SubmitHandler processes the three public form endpoints. Each submission
// renders a user acknowledgment and an admin notification and hands both to
// the mailer; no submission state survives the request.
type SubmitHandler struct {
	mailer     services.Mailer
	templates  *services.TemplateService
	adminEmail string
}

// NewSubmitHandler creates a new submission handler.
func NewSubmitHandler(mailer services.Mailer, templates *services.TemplateService, adminEmail string) *SubmitHandler {
	return &SubmitHandler{mailer: mailer, templates: templates, adminEmail: adminEmail}
}

func badRequest(c *gin.Context, message, submissionID string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":      false,
		"message":      message,
		"submissionId": submissionID,
	})
}

func mailFailed(c *gin.Context, submissionID string) {
	metrics.IncMailFailure()
	c.JSON(http.StatusInternalServerError, gin.H{
		"success":      false,
		"message":      msgEmailSendFailed,
		"submissionId": submissionID,
	})
}

func accepted(c *gin.Context, message, submissionID string) {
	metrics.IncSubmissionAccepted()
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      message,
		"submissionId": submissionID,
	})
}

// Contact handles POST /api/contact.
func (h *SubmitHandler) Contact(c *gin.Context) {
	submissionID := newSubmissionID()
	entry := middleware.GetRequestLogger(c).WithField("submission_id", submissionID)

	var req forms.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody, submissionID)
		return
	}

	sub, err := forms.ValidateContact(req)
	if err != nil {
		badRequest(c, err.Error(), submissionID)
		return
	}

	entry.WithFields(logrus.Fields{
		"email":   sub.Email,
		"subject": util.SanitizeForLog(sub.Subject),
	}).Info("Contact form submission received")

	userEmail, err := h.templates.ContactUser(sub)
	if err != nil {
		entry.WithError(err).Error("Failed to render contact emails")
		mailFailed(c, submissionID)
		return
	}
	adminEmail, err := h.templates.ContactAdmin(sub, submissionID, time.Now())
	if err != nil {
		entry.WithError(err).Error("Failed to render contact emails")
		mailFailed(c, submissionID)
		return
	}

	if err := h.mailer.SendEmail(sub.Email, userEmail.Subject, userEmail.HTML); err != nil {
		entry.WithError(err).Error("Contact form submission failed")
		mailFailed(c, submissionID)
		return
	}
	subject := util.Truncate(adminEmail.Subject, 80)
	if err := h.mailer.SendEmail(h.adminEmail, subject, adminEmail.HTML); err != nil {
		entry.WithError(err).Error("Contact form submission failed")
		mailFailed(c, submissionID)
		return
	}

	accepted(c, msgContactSubmitted, submissionID)
	entry.Info("Contact form processed successfully")
}

// Feature handles POST /api/feature.
func (h *SubmitHandler) Feature(c *gin.Context) {
	submissionID := newSubmissionID()
	entry := middleware.GetRequestLogger(c).WithField("submission_id", submissionID)

	var req forms.FeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody, submissionID)
		return
	}

	sub, err := forms.ValidateFeature(req)
	if err != nil {
		badRequest(c, err.Error(), submissionID)
		return
	}

	email := sub.Email
	if email == "" {
		email = "anonymous"
	}
	entry.WithFields(logrus.Fields{
		"email":    email,
		"title":    util.SanitizeForLog(sub.Title),
		"priority": sub.Priority,
	}).Info("Feature request submission received")

	// The acknowledgment is only sent when the requester left an address.
	if sub.Email != "" {
		userEmail, err := h.templates.FeatureUser(sub)
		if err != nil {
			entry.WithError(err).Error("Failed to render feature emails")
			mailFailed(c, submissionID)
			return
		}
		if err := h.mailer.SendEmail(sub.Email, userEmail.Subject, userEmail.HTML); err != nil {
			entry.WithError(err).Error("Feature request submission failed")
			mailFailed(c, submissionID)
			return
		}
	}

	adminEmail, err := h.templates.FeatureAdmin(sub, submissionID, time.Now())
	if err != nil {
		entry.WithError(err).Error("Failed to render feature emails")
		mailFailed(c, submissionID)
		return
	}
	subject := util.Truncate(adminEmail.Subject, 80)
	if err := h.mailer.SendEmail(h.adminEmail, subject, adminEmail.HTML); err != nil {
		entry.WithError(err).Error("Feature request submission failed")
		mailFailed(c, submissionID)
		return
	}

	accepted(c, msgFeatureSubmitted, submissionID)
	entry.Info("Feature request processed successfully")
}

// Bug handles POST /api/bug.
func (h *SubmitHandler) Bug(c *gin.Context) {
	submissionID := newSubmissionID()
	entry := middleware.GetRequestLogger(c).WithField("submission_id", submissionID)

	var req forms.BugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody, submissionID)
		return
	}

	sub, err := forms.ValidateBug(req)
	if err != nil {
		badRequest(c, err.Error(), submissionID)
		return
	}

	entry.WithFields(logrus.Fields{
		"email":    sub.Email,
		"title":    util.SanitizeForLog(sub.Title),
		"priority": sub.Priority,
		"browser":  util.SanitizeForLog(sub.Browser),
	}).Info("Bug report submission received")

	userEmail, err := h.templates.BugUser(sub)
	if err != nil {
		entry.WithError(err).Error("Failed to render bug emails")
		mailFailed(c, submissionID)
		return
	}
	adminEmail, err := h.templates.BugAdmin(sub, clientSummary(c.GetHeader("User-Agent")), submissionID, time.Now())
	if err != nil {
		entry.WithError(err).Error("Failed to render bug emails")
		mailFailed(c, submissionID)
		return
	}

	if err := h.mailer.SendEmail(sub.Email, userEmail.Subject, userEmail.HTML); err != nil {
		entry.WithError(err).Error("Bug report submission failed")
		mailFailed(c, submissionID)
		return
	}
	subject := util.Truncate(adminEmail.Subject, 80)
	if err := h.mailer.SendEmail(h.adminEmail, subject, adminEmail.HTML); err != nil {
		entry.WithError(err).Error("Bug report submission failed")
		mailFailed(c, submissionID)
		return
	}

	accepted(c, msgBugSubmitted, submissionID)
	entry.Info("Bug report processed successfully")
}

// clientSummary condenses the reporting client's User-Agent header into a
// readable browser/OS line for the admin email.
func clientSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return util.Truncate(util.SanitizeForLog(rawUA), forms.MaxBrowserLength)
	}

	parts := []string{name}
	if version != "" {
		parts = append(parts, version)
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, "on", os)
	}
	return strings.Join(parts, " ")
}
