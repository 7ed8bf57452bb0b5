package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

// SurveyDocument は MongoDB 上でのアンケート集約スキーマを Go 構造体として表現したもの。
// responses は挿入順を保つ配列で、revision が楽観ロックの版数を持つ。
type SurveyDocument struct {
	ID                  primitive.ObjectID `bson:"_id"`
	Title               string             `bson:"title"`
	Area                string             `bson:"area"`
	Question            string             `bson:"question"`
	Guidelines          string             `bson:"guidelines,omitempty"`
	PermittedDomains    []string           `bson:"permittedDomains,omitempty"`
	PermittedResponses  *int               `bson:"permittedResponses,omitempty"`
	SummaryInstructions string             `bson:"summaryInstructions,omitempty"`
	CreatorID           string             `bson:"creatorId"`
	ExpiryDate          *time.Time         `bson:"expiryDate,omitempty"`
	Closed              bool               `bson:"closed"`
	Responses           []ResponseDocument `bson:"responses"`
	Summary             *SummaryDocument   `bson:"summary,omitempty"`
	Revision            int64              `bson:"revision"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

// ResponseDocument は集約内に埋め込まれる回答 1 件分のスキーマ。
type ResponseDocument struct {
	ID        string    `bson:"id"`
	UserID    string    `bson:"userId"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// SummaryDocument は AI 要約の埋め込みドキュメント。
type SummaryDocument struct {
	Text        string    `bson:"text"`
	GeneratedAt time.Time `bson:"generatedAt"`
	IsVisible   bool      `bson:"isVisible"`
}

// FailedNotificationDocument は送信に失敗した通知の記録。
type FailedNotificationDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	SurveyID    string             `bson:"surveyId"`
	Destination string             `bson:"destination"`
	Payload     string             `bson:"payload"`
	Reason      string             `bson:"reason"`
	FailedAt    time.Time          `bson:"failedAt"`
}

// mapSurveyDocument は Mongo ドキュメントをドメイン集約へ復元する。
// 永続化済みデータは投入時に検証済みのため、値オブジェクトは再検証せず直接構築する。
func mapSurveyDocument(doc SurveyDocument) domain.Survey {
	responses := make([]domain.ResponseRecord, 0, len(doc.Responses))
	for _, record := range doc.Responses {
		responses = append(responses, domain.ResponseRecord{
			ID:        record.ID,
			UserID:    record.UserID,
			Text:      record.Text,
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
		})
	}

	var summary *domain.Summary
	if doc.Summary != nil {
		summary = &domain.Summary{
			Text:        doc.Summary.Text,
			GeneratedAt: doc.Summary.GeneratedAt,
			Visible:     doc.Summary.IsVisible,
		}
	}

	return domain.Survey{
		ID:                  doc.ID.Hex(),
		Title:               domain.Title(doc.Title),
		Area:                domain.Area(doc.Area),
		Question:            domain.Question(doc.Question),
		Guidelines:          doc.Guidelines,
		PermittedDomains:    domain.PermittedDomains(doc.PermittedDomains),
		PermittedResponses:  doc.PermittedResponses,
		SummaryInstructions: doc.SummaryInstructions,
		CreatorID:           doc.CreatorID,
		ExpiryDate:          doc.ExpiryDate,
		Closed:              doc.Closed,
		Responses:           responses,
		Summary:             summary,
		Revision:            doc.Revision,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
}

// mapResponseDocuments はドメインの回答リストを埋め込みドキュメントへ変換する。
func mapResponseDocuments(records []domain.ResponseRecord) []ResponseDocument {
	docs := make([]ResponseDocument, 0, len(records))
	for _, record := range records {
		docs = append(docs, ResponseDocument{
			ID:        record.ID,
			UserID:    record.UserID,
			Text:      record.Text,
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
		})
	}
	return docs
}
