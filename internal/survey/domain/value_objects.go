package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength        = 200
	maxAreaLength         = 100
	maxQuestionLength     = 2000
	maxGuidelinesLength   = 4000
	maxInstructionsLength = 2000
	maxResponseTextLength = 4000
)

type Title string

func NewTitle(value string) (Title, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", NewValidationError("タイトルを入力してください")
	}
	if utf8.RuneCountInString(trimmed) > maxTitleLength {
		return "", NewValidationError(fmt.Sprintf("タイトルは%d文字以内で入力してください", maxTitleLength))
	}
	return Title(trimmed), nil
}

func (t Title) String() string {
	return string(t)
}

type Area string

func NewArea(value string) (Area, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", NewValidationError("対象領域を入力してください")
	}
	if utf8.RuneCountInString(trimmed) > maxAreaLength {
		return "", NewValidationError(fmt.Sprintf("対象領域は%d文字以内で入力してください", maxAreaLength))
	}
	return Area(trimmed), nil
}

func (a Area) String() string {
	return string(a)
}

type Question string

func NewQuestion(value string) (Question, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", NewValidationError("設問を入力してください")
	}
	if utf8.RuneCountInString(trimmed) > maxQuestionLength {
		return "", NewValidationError(fmt.Sprintf("設問は%d文字以内で入力してください", maxQuestionLength))
	}
	return Question(trimmed), nil
}

func (q Question) String() string {
	return string(q)
}

// PermittedDomains は回答を許可するメールドメインの一覧。空リストは制限なしを意味する。
type PermittedDomains []string

// NewPermittedDomains は入力を小文字へ正規化し、先頭の @ を除去して重複を取り除く。
func NewPermittedDomains(values []string) (PermittedDomains, error) {
	if len(values) == 0 {
		return nil, nil
	}
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{})
	for _, raw := range values {
		domain := strings.ToLower(strings.TrimSpace(raw))
		domain = strings.TrimPrefix(domain, "@")
		if domain == "" {
			continue
		}
		if !strings.Contains(domain, ".") || strings.ContainsAny(domain, " @/") {
			return nil, NewValidationError(fmt.Sprintf("許可ドメインの形式が不正です: %s", raw))
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		result = append(result, domain)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return PermittedDomains(result), nil
}

// Allows は指定メールアドレスのドメインが許可リストに含まれるか判定する。
// リストが空の場合はすべて許可する。
func (d PermittedDomains) Allows(email string) bool {
	if len(d) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	for _, allowed := range d {
		if allowed == domain {
			return true
		}
	}
	return false
}

// NewPermittedResponses は回答者クォータを検証する。nil は無制限。
func NewPermittedResponses(value *int) (*int, error) {
	if value == nil {
		return nil, nil
	}
	if *value <= 0 {
		return nil, NewValidationError("回答上限は1以上で指定してください")
	}
	quota := *value
	return &quota, nil
}

// NewGuidelines は任意項目の回答ガイドラインを検証する。
func NewGuidelines(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) > maxGuidelinesLength {
		return "", NewValidationError(fmt.Sprintf("ガイドラインは%d文字以内で入力してください", maxGuidelinesLength))
	}
	return trimmed, nil
}

// NewSummaryInstructions は要約生成の指示文を検証する。
func NewSummaryInstructions(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) > maxInstructionsLength {
		return "", NewValidationError(fmt.Sprintf("要約指示は%d文字以内で入力してください", maxInstructionsLength))
	}
	return trimmed, nil
}

// NewResponseText は回答本文を検証する。
func NewResponseText(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", NewValidationError("回答本文を入力してください")
	}
	if utf8.RuneCountInString(trimmed) > maxResponseTextLength {
		return "", NewValidationError(fmt.Sprintf("回答は%d文字以内で入力してください", maxResponseTextLength))
	}
	return trimmed, nil
}
