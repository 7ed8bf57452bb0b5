package survey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kikitori/survey-services/api/internal/interfaces/http/common"
	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

type messengerPayload struct {
	Destination string `json:"destination"`
	To          string `json:"to"`
	Text        string `json:"text"`
}

// notifyNewResponse は初回投稿の受付通知をメッセンジャーゲートウェイへ送る。
// 通知は投稿結果へ影響させないため、リクエスト処理とは切り離して実行し、
// 失敗時は failed_notifications へ記録するだけに留める。
func (h *Handler) notifyNewResponse(surveyID string, user common.AuthenticatedUser, record *domain.ResponseRecord) {
	if h.httpClient == nil || strings.TrimSpace(h.notifyEndpoint) == "" {
		return
	}

	message := buildResponseReceiptMessage(user, record)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.sendMessengerMessage(ctx, h.notifyDestination, user.ID, message); err != nil {
			if h.logger != nil {
				h.logger.Printf("回答受付通知の送信に失敗: %v", err)
			}
			if h.failedNotifications != nil {
				if recordErr := h.failedNotifications.Record(ctx, surveyID, h.notifyDestination, message, err.Error()); recordErr != nil && h.logger != nil {
					h.logger.Printf("失敗通知の記録に失敗: %v", recordErr)
				}
			}
		}
	}()
}

func buildResponseReceiptMessage(user common.AuthenticatedUser, record *domain.ResponseRecord) string {
	var builder strings.Builder
	builder.WriteString("アンケートへのご回答ありがとうございます！\n")
	if name := strings.TrimSpace(user.Name); name != "" {
		builder.WriteString(fmt.Sprintf("**お名前**\n> %s\n", name))
	}
	builder.WriteString(fmt.Sprintf("**受付日時**\n> %s\n", record.CreatedAt.Format(time.RFC3339)))
	return builder.String()
}

func (h *Handler) sendMessengerMessage(ctx context.Context, destination, to, text string) error {
	payload, err := json.Marshal(messengerPayload{
		Destination: destination,
		To:          to,
		Text:        text,
	})
	if err != nil {
		return err
	}

	endpoint := strings.TrimRight(h.notifyEndpoint, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("messenger gateway returned status %d", resp.StatusCode)
	}
	return nil
}
