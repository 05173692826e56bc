// server/internal/notify/dispatcher.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pipeyard-storage-api-server/internal/models"
	"pipeyard-storage-api-server/internal/socket"
)

// Dispatcher đẩy notification ra ngoài: POST sang webhook (phía đó map
// type -> template email/chat) và broadcast lên websocket hub cho dashboard.
// Chỉ queue worker gọi vào đây — không bao giờ gọi từ trong transaction.
type Dispatcher struct {
	WebhookURL string
	Hub        *socket.Hub
	HTTPClient *http.Client
}

func NewDispatcher(webhookURL string, hub *socket.Hub) *Dispatcher {
	return &Dispatcher{
		WebhookURL: webhookURL,
		Hub:        hub,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, entry models.NotificationQueueEntry) error {
	message, err := json.Marshal(map[string]interface{}{
		"event":        entry.Type,
		"entityID":     entry.EntityID,
		"targetStatus": entry.TargetStatus,
		"payload":      entry.Payload,
	})
	if err != nil {
		return err
	}

	// Hub chỉ là best-effort; webhook mới quyết định entry có processed hay không.
	if d.Hub != nil {
		d.Hub.Broadcast(message)
	}

	if d.WebhookURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(message))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
