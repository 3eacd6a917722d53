package services

import (
	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/router"
	"github.com/containrrr/shoutrrr/pkg/types"

	"github.com/beatplayr/backend/internal/logger"
)

// AlertService pushes operational notifications (block escalations, mail
// failures) to the configured shoutrrr URLs. A misconfigured or unreachable
// target is logged and dropped, never surfaced to the request path.
type AlertService struct {
	sender *router.ServiceRouter
}

// NewAlertService creates an alert sender for the given shoutrrr URLs. An
// empty list yields a disabled service that swallows notifications.
func NewAlertService(urls []string) *AlertService {
	if len(urls) == 0 {
		return &AlertService{}
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		logger.Log().WithError(err).Error("Failed to initialize alert sender, alerts disabled")
		return &AlertService{}
	}

	return &AlertService{sender: sender}
}

// Enabled reports whether at least one alert target is configured.
func (s *AlertService) Enabled() bool {
	return s.sender != nil
}

// Notify sends a titled message to every configured target.
func (s *AlertService) Notify(title, message string) {
	if s.sender == nil {
		return
	}

	params := types.Params{"title": title}
	for _, err := range s.sender.Send(message, &params) {
		if err != nil {
			logger.Log().WithError(err).Warn("Failed to deliver alert notification")
		}
	}
}
