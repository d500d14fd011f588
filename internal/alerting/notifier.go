package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/classify"
)

// Notification 封装一次状态变化告警。
type Notification struct {
	At            time.Time
	Label         string
	LastUpdate    string
	State         classify.State
	Previous      classify.State
	HasPrevious   bool
	AdditionalMsg string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Time("at", note.At).
		Str("icon", note.State.Icon().String()).
		Msg("告警已发送 (Telegram)")
	return nil
}

// RenderMessage formats the alert text.
func RenderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Glucose %s]\n", headline(note.State)))
	builder.WriteString(fmt.Sprintf("Reading: %s\n", note.Label))
	if note.LastUpdate != "" {
		builder.WriteString(note.LastUpdate + "\n")
	}
	if note.HasPrevious {
		builder.WriteString(fmt.Sprintf("State: %s -> %s\n", note.Previous.Icon(), note.State.Icon()))
	} else {
		builder.WriteString(fmt.Sprintf("State: %s\n", note.State.Icon()))
	}
	builder.WriteString(fmt.Sprintf("At: %s\n", note.At.Format(time.RFC3339)))
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

func headline(s classify.State) string {
	switch {
	case s.Stale:
		return "STALE"
	case s.Range == classify.Low:
		return "LOW"
	case s.Range == classify.High:
		return "HIGH"
	default:
		return "back in range"
	}
}

var _ Notifier = (*TelegramNotifier)(nil)
