// Package notify forwards site events (currently only payment webhooks) to
// the internal notification endpoint. Delivery beyond that endpoint is someone
// else's problem.
package notify

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cyclopcam/logs"
)

const sendTimeout = 10 * time.Second

type Notifier struct {
	log      logs.Log
	endpoint string
	client   *http.Client
}

// NewNotifier creates a notifier that POSTs to endpoint. An empty endpoint
// yields a notifier that logs and drops everything, which is what you want in
// dev environments.
func NewNotifier(log logs.Log, endpoint string) *Notifier {
	return &Notifier{
		log:      log,
		endpoint: endpoint,
		client:   &http.Client{Timeout: sendTimeout},
	}
}

// Send forwards one event as form-encoded key/value params. The event type
// rides along as the "type" param.
func (n *Notifier) Send(ctx context.Context, eventType string, params url.Values) error {
	params.Set("type", eventType)
	if n.endpoint == "" {
		n.log.Infof("Notification (no endpoint configured): %v", params.Encode())
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "POST", n.endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
