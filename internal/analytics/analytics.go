package analytics

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
)

// Store persists raw event rows for the admin aggregator.
type Store interface {
	SaveEvent(models.AnalyticsEvent) error
}

// Sink records storefront events. Recording is fire-and-forget: every
// failure is logged and swallowed so an analytics outage can never block a
// cart or checkout mutation.
type Sink struct {
	store      Store
	client     *resty.Client
	forwardURL string
}

// New builds a sink. forwardURL may be empty; when set, every event is also
// pushed to the external collector over HTTP.
func New(store Store, forwardURL string) *Sink {
	client := resty.New().
		SetTimeout(2 * time.Second).
		SetRetryCount(1)
	return &Sink{store: store, client: client, forwardURL: forwardURL}
}

func (s *Sink) Record(name, sessionID, uid string, attrs map[string]any) {
	log := logger.Get()
	ev := models.AnalyticsEvent{
		Name:      name,
		SessionID: sessionID,
		UID:       uid,
		Attrs:     attrs,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveEvent(ev); err != nil {
		log.Warn().Err(err).Str("event", name).Msg("analytics event dropped")
	}
	if s.forwardURL == "" {
		return
	}
	if _, err := s.client.R().SetBody(ev).Post(s.forwardURL); err != nil {
		log.Warn().Err(err).Str("event", name).Msg("analytics forward failed")
	}
}
