package domain

import "time"

// Survey は回答リストを内包するアンケート集約。
// 集約単位でしか永続化されず、Response は常にこの構造体の内部に埋め込まれる。
type Survey struct {
	ID                  string
	Title               Title
	Area                Area
	Question            Question
	Guidelines          string
	PermittedDomains    PermittedDomains
	PermittedResponses  *int
	SummaryInstructions string
	CreatorID           string
	ExpiryDate          *time.Time
	Closed              bool
	Responses           []ResponseRecord
	Summary             *Summary
	Revision            int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ResponseRecord はユーザー 1 名分の回答。親となる Survey の外では参照されない。
type ResponseRecord struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary は AI 連携で生成された要約と公開フラグを保持する。
type Summary struct {
	Text        string
	GeneratedAt time.Time
	Visible     bool
}

// IsExpired は期限切れ判定。Closed とは独立した派生述語であり、保存される状態ではない。
func (s *Survey) IsExpired(now time.Time) bool {
	return s.ExpiryDate != nil && s.ExpiryDate.Before(now)
}

// ResponseByID は回答 ID から埋め込みレコードを探す。
func (s *Survey) ResponseByID(responseID string) (*ResponseRecord, bool) {
	for i := range s.Responses {
		if s.Responses[i].ID == responseID {
			return &s.Responses[i], true
		}
	}
	return nil, false
}

// ResponseByUser はユーザー ID から既存回答を探す。1 ユーザー 1 回答の不変条件により高々 1 件。
func (s *Survey) ResponseByUser(userID string) (*ResponseRecord, bool) {
	for i := range s.Responses {
		if s.Responses[i].UserID == userID {
			return &s.Responses[i], true
		}
	}
	return nil, false
}

// RespondentCount は回答者数を返す。1 ユーザー 1 回答のため回答件数と一致する。
func (s *Survey) RespondentCount() int {
	return len(s.Responses)
}

// QuotaReached は新規回答者を受け入れられない状態かを判定する。
// クォータは「異なる回答者の数」に対する上限であり、既存回答者の再投稿は妨げない。
func (s *Survey) QuotaReached() bool {
	return s.PermittedResponses != nil && s.RespondentCount() >= *s.PermittedResponses
}

// ResponseTexts は投稿順を保ったまま回答本文のみを抜き出す。要約生成の入力に使う。
func (s *Survey) ResponseTexts() []string {
	texts := make([]string, 0, len(s.Responses))
	for _, record := range s.Responses {
		texts = append(texts, record.Text)
	}
	return texts
}

// SummaryVisibleTo は要約を閲覧できるかを判定する。公開フラグが立っているか、作成者本人のみ。
func (s *Survey) SummaryVisibleTo(actorID string) bool {
	if s.Summary == nil {
		return false
	}
	return s.Summary.Visible || (actorID != "" && actorID == s.CreatorID)
}
