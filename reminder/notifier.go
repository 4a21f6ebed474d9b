package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// LogNotifier only logs reminders. It is used when no push gateway is configured.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, r Reminder) error {
	l := n.Log
	if l == nil {
		l = slog.Default()
	}
	l.Info("reminder (no push gateway configured)",
		"season", r.SeasonID.Hex(), "seasonName", r.SeasonName, "tasks", r.TaskCount, "body", r.Body)
	return nil
}

// WebhookNotifier POSTs each reminder as JSON to a push gateway, which
// forwards it to the device token.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

type pushMessage struct {
	Token        string `json:"token"`
	Notification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	} `json:"notification"`
	Data map[string]string `json:"data"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, r Reminder) error {
	var msg pushMessage
	msg.Token = r.Token
	msg.Notification.Title = r.Title
	msg.Notification.Body = r.Body
	msg.Data = map[string]string{
		"seasonId":   r.SeasonID.Hex(),
		"seasonName": r.SeasonName,
		"taskCount":  fmt.Sprint(r.TaskCount),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("push gateway non-2xx: %s, body: %s", resp.Status, string(data))
	}
	return nil
}
