// Package slack posts coaching safety alerts to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fitcoach/actions"
)

// maxAlertChars keeps quoted specialist replies readable in a channel.
const maxAlertChars = 500

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	channel    string
	httpClient doer
}

func NewClient(webhookURL, channel string, httpClient doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		webhookURL: webhookURL,
		channel:    channel,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// PostSafetyAlert tells the coaching team that a form/safety specialist
// flagged a user's message.
func (c *Client) PostSafetyAlert(ctx context.Context, userID string, resp actions.AgentResponse) error {
	return c.PostMessage(ctx, c.channel, FormatSafetyAlert(userID, resp))
}

func FormatSafetyAlert(userID string, resp actions.AgentResponse) string {
	msg := strings.TrimSpace(resp.Message)
	if r := []rune(msg); len(r) > maxAlertChars {
		msg = string(r[:maxAlertChars]) + "…"
	}
	quoted := "> " + strings.ReplaceAll(msg, "\n", "\n> ")
	return fmt.Sprintf(":warning: %s alert for user %s (confidence %.2f)\n%s",
		resp.AgentType, userID, resp.Confidence, quoted)
}
