package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kikitori/survey-services/api/internal/survey/application"
)

// Config は Gemini クライアントの接続設定。
type Config struct {
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
}

// Summarizer は Gemini API を使って回答全体の要約文を生成する application.Summarizer 実装。
type Summarizer struct {
	logger     *log.Logger
	client     *genai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
}

// NewSummarizer は設定を検証し、Gemini クライアントを初期化する。
func NewSummarizer(ctx context.Context, logger *log.Logger, cfg Config) (*Summarizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 2
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}

	return &Summarizer{
		logger:     logger,
		client:     client,
		model:      cfg.Model,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// Summarize はアンケートメタデータと投稿順の回答本文からプロンプトを組み立て、
// Gemini へ問い合わせる。一時的な失敗は間隔を空けて再試行する。
func (s *Summarizer) Summarize(ctx context.Context, input application.SummaryInput) (string, error) {
	prompt := buildPrompt(input)

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
		if err != nil {
			lastErr = err
			s.logger.Printf("Gemini API 呼び出しに失敗 (attempt %d/%d): %v", attempt+1, s.maxRetries+1, err)
			continue
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			lastErr = errors.New("empty response from gemini")
			s.logger.Printf("Gemini API が空の応答を返しました (attempt %d/%d)", attempt+1, s.maxRetries+1)
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("gemini summarize failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// buildPrompt は要約指示・設問・ガイドライン・回答本文を 1 つのプロンプトへまとめる。
// 回答は投稿順の番号付きで並べる。
func buildPrompt(input application.SummaryInput) string {
	var builder strings.Builder

	builder.WriteString("あなたはアンケート結果の分析者です。以下の回答全体を日本語で要約してください。\n\n")
	builder.WriteString(fmt.Sprintf("アンケート: %s\n", input.Title))
	builder.WriteString(fmt.Sprintf("対象領域: %s\n", input.Area))
	builder.WriteString(fmt.Sprintf("設問: %s\n", input.Question))
	if strings.TrimSpace(input.Guidelines) != "" {
		builder.WriteString(fmt.Sprintf("回答ガイドライン: %s\n", input.Guidelines))
	}
	if strings.TrimSpace(input.Instructions) != "" {
		builder.WriteString(fmt.Sprintf("要約指示: %s\n", input.Instructions))
	}

	builder.WriteString(fmt.Sprintf("\n回答 (%d件、投稿順):\n", len(input.Responses)))
	for i, text := range input.Responses {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, text))
	}

	return builder.String()
}
