package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/utils"
)

// DefaultTelegramAPI is the production bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram sends alerts to a chat via the bot sendMessage API. All sends
// are best-effort; errors are logged and swallowed.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// NewTelegram builds a Telegram notifier. baseURL is overridable for tests;
// pass DefaultTelegramAPI in production.
func NewTelegram(token, chatID, baseURL string, log logger.Logger) *Telegram {
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  log,
	}
}

func (t *Telegram) FirstFailure(ctx context.Context, campaignName, endpointURL, reason string, failures int, nctx Context) {
	var extra string
	if nctx.Slug != "" || nctx.TotalEndpoints > 0 {
		extra = fmt.Sprintf("\n<b>Link:</b> /go/%s\n<b>Active endpoints:</b> %d/%d",
			esc(nctx.Slug), nctx.ActiveEndpoints, nctx.TotalEndpoints)
	}

	t.send(ctx, fmt.Sprintf(`⚠️ <b>Endpoint trouble</b>

<b>Campaign:</b> %s
<b>URL:</b> <code>%s</code>
<b>Error:</b> %s
<b>Consecutive failures:</b> %d%s

The next endpoints in the rotation are being tried.`,
		esc(campaignName), esc(endpointURL), esc(reason), failures, extra))
}

func (t *Telegram) Deactivated(ctx context.Context, campaignName, endpointURL, reason string, failures int) {
	t.send(ctx, fmt.Sprintf(`🔴 <b>Endpoint DEACTIVATED</b>

<b>Campaign:</b> %s
<b>URL:</b> <code>%s</code>
<b>Reason:</b> %s
<b>Consecutive failures:</b> %d

This endpoint left the rotation and will receive no more traffic.`,
		esc(campaignName), esc(endpointURL), esc(reason), failures))
}

func (t *Telegram) Recovered(ctx context.Context, campaignName, endpointURL string) {
	t.send(ctx, fmt.Sprintf(`✅ <b>Endpoint recovered</b>

<b>Campaign:</b> %s
<b>URL:</b> <code>%s</code>

The endpoint is healthy again and back in the rotation.`,
		esc(campaignName), esc(endpointURL)))
}

func (t *Telegram) AllDown(ctx context.Context, campaignName, slug string, totalEndpoints int) {
	t.send(ctx, fmt.Sprintf(`🚨🚨🚨 <b>ALL ENDPOINTS DOWN</b>

<b>Campaign:</b> %s
<b>Link:</b> /go/%s
<b>Endpoints:</b> %d (all failing)

<b>URGENT:</b> paid traffic is being lost right now. Check the endpoints or pause the ads.`,
		esc(campaignName), esc(slug), totalEndpoints))
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (t *Telegram) send(ctx context.Context, text string) {
	if t.token == "" || t.chatID == "" {
		t.logger.Debug("telegram notifier not configured, dropping message")
		return
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		t.logger.Warn("failed to encode telegram message", logger.Error(err))
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.logger.Warn("failed to build telegram request", logger.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Warn("failed to send telegram notification", logger.Error(err))
		return
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("telegram API rejected notification",
			logger.Int("status", resp.StatusCode))
		return
	}

	t.logger.Debug("telegram notification sent")
}

func esc(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

var _ Notifier = (*Telegram)(nil)
