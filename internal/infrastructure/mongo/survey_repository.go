package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kikitori/survey-services/api/internal/survey/application"
	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

// SurveyRepository はアンケート集約を MongoDB で扱う実装リポジトリ。
// 回答配列の更新は revision を条件に含めた Compare-and-Swap で行い、
// 条件不一致は domain.ErrRevisionConflict として報告する。
type SurveyRepository struct {
	surveys *mongo.Collection
}

// NewSurveyRepository はアンケートコレクションを束縛したリポジトリを構築する。
func NewSurveyRepository(db *mongo.Database, surveyCollection string) *SurveyRepository {
	return &SurveyRepository{surveys: db.Collection(surveyCollection)}
}

// Create は新規集約を revision=0 で挿入し、採番結果をドメインモデルへ反映する。
func (r *SurveyRepository) Create(ctx context.Context, survey *domain.Survey) error {
	doc := SurveyDocument{
		ID:                  primitive.NewObjectID(),
		Title:               survey.Title.String(),
		Area:                survey.Area.String(),
		Question:            survey.Question.String(),
		Guidelines:          survey.Guidelines,
		PermittedDomains:    survey.PermittedDomains,
		PermittedResponses:  survey.PermittedResponses,
		SummaryInstructions: survey.SummaryInstructions,
		CreatorID:           survey.CreatorID,
		ExpiryDate:          survey.ExpiryDate,
		Closed:              survey.Closed,
		Responses:           mapResponseDocuments(survey.Responses),
		Revision:            0,
		CreatedAt:           survey.CreatedAt,
		UpdatedAt:           survey.UpdatedAt,
	}
	if doc.Responses == nil {
		doc.Responses = []ResponseDocument{}
	}

	if _, err := r.surveys.InsertOne(ctx, doc); err != nil {
		return wrapPersistence(err)
	}

	survey.ID = doc.ID.Hex()
	survey.Revision = doc.Revision
	return nil
}

// FindByID はアンケート ID から単一集約を取得する。不正な ID も NotFound として扱う。
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*domain.Survey, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrSurveyNotFound
	}

	var doc SurveyDocument
	if err := r.surveys.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, wrapPersistence(err)
	}

	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// Find は作成者・状態・キーワードの複合条件を Mongo クエリへ落とし込み、
// 総件数と合わせてページ分の集約を返す。
func (r *SurveyRepository) Find(ctx context.Context, filter application.SurveyFilter, paging application.Paging) ([]domain.Survey, int64, error) {
	mongoFilter := buildSurveyFilter(filter, time.Now().UTC())

	total, err := r.surveys.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if paging.Limit > 0 {
		findOpts.SetLimit(int64(paging.Limit))
		if paging.Page > 1 {
			findOpts.SetSkip(int64((paging.Page - 1) * paging.Limit))
		}
	}

	cursor, err := r.surveys.Find(ctx, mongoFilter, findOpts)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	defer cursor.Close(ctx)

	surveys := make([]domain.Survey, 0)
	for cursor.Next(ctx) {
		var doc SurveyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, wrapPersistence(err)
		}
		surveys = append(surveys, mapSurveyDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return surveys, total, nil
}

// UpdateLifecycle は closed / expiryDate に限定した部分更新。回答配列には触れない。
func (r *SurveyRepository) UpdateLifecycle(ctx context.Context, id string, patch application.LifecyclePatch) (*domain.Survey, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrSurveyNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Closed != nil {
		set["closed"] = *patch.Closed
	}
	if patch.ExpiryDate != nil {
		set["expiryDate"] = *patch.ExpiryDate
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc SurveyDocument
	if err := r.surveys.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, wrapPersistence(err)
	}

	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// UpdateResponses は revision 一致を条件に responses 配列を差し替え、revision を進める。
// 条件不一致のときはドキュメントの有無を確かめ、存在すれば競合として報告する。
func (r *SurveyRepository) UpdateResponses(ctx context.Context, id string, revision int64, responses []domain.ResponseRecord) (*domain.Survey, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrSurveyNotFound
	}

	docs := mapResponseDocuments(responses)
	if docs == nil {
		docs = []ResponseDocument{}
	}

	filter := bson.M{"_id": objectID, "revision": revision}
	update := bson.M{
		"$set": bson.M{
			"responses": docs,
			"updatedAt": time.Now().UTC(),
		},
		"$inc": bson.M{"revision": int64(1)},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc SurveyDocument
	if err := r.surveys.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.classifyMissedWrite(ctx, objectID)
		}
		return nil, wrapPersistence(err)
	}

	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// SaveSummary は summary フィールドのみを更新する。responses と revision には触れない。
func (r *SurveyRepository) SaveSummary(ctx context.Context, id string, summary domain.Summary) (*domain.Survey, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrSurveyNotFound
	}

	update := bson.M{"$set": bson.M{
		"summary": SummaryDocument{
			Text:        summary.Text,
			GeneratedAt: summary.GeneratedAt,
			IsVisible:   summary.Visible,
		},
		"updatedAt": time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc SurveyDocument
	if err := r.surveys.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, wrapPersistence(err)
	}

	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// SetSummaryVisibility は要約の公開フラグのみを切り替える。
func (r *SurveyRepository) SetSummaryVisibility(ctx context.Context, id string, visible bool) (*domain.Survey, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrSurveyNotFound
	}

	filter := bson.M{"_id": objectID, "summary": bson.M{"$ne": nil}}
	update := bson.M{"$set": bson.M{
		"summary.isVisible": visible,
		"updatedAt":         time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc SurveyDocument
	if err := r.surveys.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, wrapPersistence(err)
	}

	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// FindByRespondent は指定ユーザーの回答を含む集約を新しい順に列挙する。
func (r *SurveyRepository) FindByRespondent(ctx context.Context, userID string) ([]domain.Survey, error) {
	filter := bson.M{"responses.userId": userID}
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.surveys.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	defer cursor.Close(ctx)

	surveys := make([]domain.Survey, 0)
	for cursor.Next(ctx) {
		var doc SurveyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapPersistence(err)
		}
		surveys = append(surveys, mapSurveyDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapPersistence(err)
	}
	return surveys, nil
}

// classifyMissedWrite は CAS 不成立の原因を、ドキュメント不在か版数ずれかに切り分ける。
func (r *SurveyRepository) classifyMissedWrite(ctx context.Context, objectID primitive.ObjectID) error {
	count, err := r.surveys.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return wrapPersistence(err)
	}
	if count == 0 {
		return domain.ErrSurveyNotFound
	}
	return domain.ErrRevisionConflict
}

// buildSurveyFilter は検索条件を Mongo フィルタへ変換する。
// active は「未締切かつ期限が未来または無期限」、expired は「未締切かつ期限超過」。
func buildSurveyFilter(filter application.SurveyFilter, now time.Time) bson.M {
	mongoFilter := bson.M{}
	andClauses := make([]bson.M, 0)

	if creatorID := strings.TrimSpace(filter.CreatorID); creatorID != "" {
		mongoFilter["creatorId"] = creatorID
	}

	switch filter.Status {
	case application.StatusActive:
		mongoFilter["closed"] = false
		andClauses = append(andClauses, bson.M{"$or": bson.A{
			bson.M{"expiryDate": bson.M{"$gt": now}},
			bson.M{"expiryDate": nil},
		}})
	case application.StatusClosed:
		mongoFilter["closed"] = true
	case application.StatusExpired:
		mongoFilter["closed"] = false
		mongoFilter["expiryDate"] = bson.M{"$ne": nil, "$lte": now}
	}

	if keyword := strings.TrimSpace(filter.SearchText); keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
		andClauses = append(andClauses, bson.M{"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"area": pattern},
		}})
	}

	if len(andClauses) == 1 {
		for k, v := range andClauses[0] {
			mongoFilter[k] = v
		}
	} else if len(andClauses) > 1 {
		mongoFilter["$and"] = andClauses
	}

	return mongoFilter
}

func wrapPersistence(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
}
