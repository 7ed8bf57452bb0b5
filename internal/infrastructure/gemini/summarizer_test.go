package gemini

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikitori/survey-services/api/internal/survey/application"
)

func TestNewSummarizerValidatesConfig(t *testing.T) {
	logger := log.New(os.Stdout, "", 0)

	_, err := NewSummarizer(context.Background(), nil, Config{APIKey: "key", Model: "gemini-2.0-flash"})
	assert.Error(t, err)

	_, err = NewSummarizer(context.Background(), logger, Config{Model: "gemini-2.0-flash"})
	assert.Error(t, err)

	_, err = NewSummarizer(context.Background(), logger, Config{APIKey: "key"})
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(application.SummaryInput{
		Title:        "リモートワーク実態調査",
		Area:         "開発部",
		Question:     "課題を教えてください",
		Guidelines:   "具体的に記述",
		Instructions: "要点を3つに",
		Responses:    []string{"会議が多い", "資料が散在"},
	})

	require.Contains(t, prompt, "リモートワーク実態調査")
	assert.Contains(t, prompt, "対象領域: 開発部")
	assert.Contains(t, prompt, "設問: 課題を教えてください")
	assert.Contains(t, prompt, "回答ガイドライン: 具体的に記述")
	assert.Contains(t, prompt, "要約指示: 要点を3つに")
	assert.Contains(t, prompt, "回答 (2件、投稿順):")
	assert.Contains(t, prompt, "1. 会議が多い")
	assert.Contains(t, prompt, "2. 資料が散在")
}

func TestBuildPromptOmitsEmptyOptionalSections(t *testing.T) {
	prompt := buildPrompt(application.SummaryInput{
		Title:     "調査",
		Area:      "全社",
		Question:  "Q",
		Responses: []string{"回答"},
	})

	assert.NotContains(t, prompt, "回答ガイドライン")
	assert.NotContains(t, prompt, "要約指示")
}
