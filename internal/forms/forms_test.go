package forms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBugRequest() BugRequest {
	return BugRequest{
		Name:        "Jamie",
		Email:       "jamie@example.com",
		Title:       "Player crashes on skip",
		Description: "The app closes when skipping twice quickly",
		Steps:       "1. Play a song\n2. Skip twice",
		Browser:     "Firefox",
		DeviceInfo:  "Pixel 8, Android 15",
	}
}

func TestValidateContactMissingFields(t *testing.T) {
	_, err := ValidateContact(ContactRequest{Name: "Sam", Email: "sam@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message")

	_, err = ValidateContact(ContactRequest{Message: "  "})
	require.Error(t, err)
	// Blank-after-trim counts as missing, and all missing fields are named.
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "message")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestValidateContactInvalidEmail(t *testing.T) {
	_, err := ValidateContact(ContactRequest{Name: "Sam", Email: "not-an-email", Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email format")
}

func TestValidateContactLengthCeilings(t *testing.T) {
	req := ContactRequest{Name: strings.Repeat("a", 101), Email: "sam@example.com", Message: "hi"}
	_, err := ValidateContact(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")

	req = ContactRequest{Name: "Sam", Email: "sam@example.com", Message: strings.Repeat("m", 5001)}
	_, err = ValidateContact(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Message")
}

func TestValidateContactSanitizes(t *testing.T) {
	sub, err := ValidateContact(ContactRequest{
		Name:    "  Sam <script> ",
		Email:   "Sam@Example.COM",
		Phone:   "+1 (555) 010-0199#",
		Subject: "Hello & goodbye",
		Message: "a < b",
	})
	require.NoError(t, err)

	assert.Equal(t, "Sam &lt;script&gt;", sub.Name)
	assert.Equal(t, "sam@example.com", sub.Email)
	assert.Equal(t, "+1 (555) 010-0199", sub.Phone)
	assert.Equal(t, "Hello &amp; goodbye", sub.Subject)
	assert.Equal(t, "a &lt; b", sub.Message)
}

func TestValidateFeatureDefaults(t *testing.T) {
	sub, err := ValidateFeature(FeatureRequest{
		FeatureTitle:       "Sleep timer",
		FeatureDescription: "Stop playback after N minutes",
	})
	require.NoError(t, err)

	assert.Equal(t, "Sleep timer", sub.Title)
	assert.Equal(t, "Medium", sub.Priority)
	assert.Empty(t, sub.Email)
	assert.Empty(t, sub.ProblemSolved)
}

func TestValidateFeatureMissingFields(t *testing.T) {
	_, err := ValidateFeature(FeatureRequest{FeatureTitle: "Sleep timer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "featureDescription")
}

func TestValidateFeatureOptionalEmailChecked(t *testing.T) {
	_, err := ValidateFeature(FeatureRequest{
		FeatureTitle:       "Sleep timer",
		FeatureDescription: "Stop playback",
		Email:              "nope",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email format")
}

func TestValidateBugAcceptsMixedCasePriority(t *testing.T) {
	for raw, want := range map[string]string{
		"Low": "Low", "low": "Low",
		"Medium": "Medium", "medium": "Medium",
		"High": "High", "high": "High",
	} {
		req := validBugRequest()
		req.Priority = raw
		sub, err := ValidateBug(req)
		require.NoError(t, err, raw)
		assert.Equal(t, want, sub.Priority, raw)
	}
}

func TestValidateBugRejectsUnknownPriority(t *testing.T) {
	req := validBugRequest()
	req.Priority = "urgent"
	_, err := ValidateBug(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Priority must be Low, Medium, or High")
}

func TestValidateBugDefaultsAndEscapes(t *testing.T) {
	req := validBugRequest()
	req.Description = `Crash when <img src=x onerror="alert(1)">`
	sub, err := ValidateBug(req)
	require.NoError(t, err)

	assert.Equal(t, "Medium", sub.Priority)
	assert.NotContains(t, sub.Description, "<img")
	assert.Contains(t, sub.Description, "&lt;img")
}

func TestValidateBugMissingFields(t *testing.T) {
	_, err := ValidateBug(BugRequest{Title: "broken"})
	require.Error(t, err)
	for _, name := range []string{"name", "email", "description", "steps", "browser", "deviceInfo"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("user@example.com"))
	assert.False(t, ValidEmail(""))
	assert.False(t, ValidEmail("no-at-sign"))
	assert.False(t, ValidEmail("Name <user@example.com>"))
	assert.False(t, ValidEmail(strings.Repeat("a", 250)+"@example.com"))
}
