package application

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

// maxConflictRetries は revision 競合時に load → 再判定 → 書き込みをやり直す上限回数。
// 上限を超えた競合は domain.ErrRevisionConflict のまま呼び出し側へ返す。
const maxConflictRetries = 3

type surveyLifecycleService struct {
	repo SurveyRepository
	now  func() time.Time
}

// NewSurveyLifecycleService creates the core lifecycle service.
func NewSurveyLifecycleService(repo SurveyRepository) SurveyLifecycleService {
	return &surveyLifecycleService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create はペイロードを検証し、open 状態・回答空の新規集約を永続化する。
// 認証済みであること以上の権限チェックは行わない。
func (s *surveyLifecycleService) Create(ctx context.Context, cmd CreateSurveyCommand) (*domain.Survey, error) {
	if cmd.CreatorID == "" {
		return nil, domain.ErrUnauthorized
	}

	title, err := domain.NewTitle(cmd.Title)
	if err != nil {
		return nil, err
	}
	area, err := domain.NewArea(cmd.Area)
	if err != nil {
		return nil, err
	}
	question, err := domain.NewQuestion(cmd.Question)
	if err != nil {
		return nil, err
	}
	guidelines, err := domain.NewGuidelines(cmd.Guidelines)
	if err != nil {
		return nil, err
	}
	permittedDomains, err := domain.NewPermittedDomains(cmd.PermittedDomains)
	if err != nil {
		return nil, err
	}
	quota, err := domain.NewPermittedResponses(cmd.PermittedResponses)
	if err != nil {
		return nil, err
	}
	instructions, err := domain.NewSummaryInstructions(cmd.SummaryInstructions)
	if err != nil {
		return nil, err
	}

	now := s.now()
	survey := &domain.Survey{
		Title:               title,
		Area:                area,
		Question:            question,
		Guidelines:          guidelines,
		PermittedDomains:    permittedDomains,
		PermittedResponses:  quota,
		SummaryInstructions: instructions,
		CreatorID:           cmd.CreatorID,
		ExpiryDate:          copyTime(cmd.ExpiryDate),
		Closed:              false,
		Responses:           []domain.ResponseRecord{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

// Close は作成者によるアンケート締切。Open → Closed は一方向の終端遷移で、
// 既に締切済みの場合は状態を変えずに alreadyClosed=true を返す。
func (s *surveyLifecycleService) Close(ctx context.Context, surveyID, actorID string) (*domain.Survey, bool, error) {
	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, false, err
	}

	role := domain.ResolveRole(survey, actorID, "")
	if !role.CanClose() {
		return nil, false, domain.ErrUnauthorized
	}

	if survey.Closed {
		return survey, true, nil
	}

	closed := true
	updated, err := s.repo.UpdateLifecycle(ctx, surveyID, LifecyclePatch{Closed: &closed})
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

// UpdateExpiry は作成者による回答期限の変更。締切済みは不可、過去日付は不可。
// 期限切れ後でも締め切っていなければ延長できる。
func (s *surveyLifecycleService) UpdateExpiry(ctx context.Context, surveyID, actorID string, newExpiry time.Time) (*domain.Survey, error) {
	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	role := domain.ResolveRole(survey, actorID, "")
	if !role.CanExtendExpiry() {
		return nil, domain.ErrUnauthorized
	}
	if survey.Closed {
		return nil, domain.ErrClosedSurveyExpiry
	}
	if !newExpiry.After(s.now()) {
		return nil, domain.ErrPastExpiryDate
	}

	expiry := newExpiry.UTC()
	return s.repo.UpdateLifecycle(ctx, surveyID, LifecyclePatch{ExpiryDate: &expiry})
}

// SubmitResponse は回答の新規投稿または本人による再投稿。
// 締切・期限・許可ドメイン・クォータの各ゲートを最新の読み取りに対して毎回判定し、
// revision 競合時は判定からやり直す。クォータは新規回答者のみを制限する。
func (s *surveyLifecycleService) SubmitResponse(ctx context.Context, cmd SubmitResponseCommand) (*domain.ResponseRecord, bool, error) {
	if cmd.ActorID == "" {
		return nil, false, domain.ErrUnauthorized
	}
	text, err := domain.NewResponseText(cmd.Text)
	if err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		survey, err := s.repo.FindByID(ctx, cmd.SurveyID)
		if err != nil {
			return nil, false, err
		}

		now := s.now()
		if survey.Closed {
			return nil, false, domain.ErrSurveyClosed
		}
		if survey.IsExpired(now) {
			return nil, false, domain.ErrSurveyExpired
		}
		if !survey.PermittedDomains.Allows(cmd.ActorEmail) {
			return nil, false, domain.ErrDomainNotPermitted
		}

		existing, found := survey.ResponseByUser(cmd.ActorID)
		if !found && survey.QuotaReached() {
			return nil, false, domain.ErrQuotaExceeded
		}

		responses := make([]domain.ResponseRecord, len(survey.Responses))
		copy(responses, survey.Responses)

		var recordID string
		created := false
		if found {
			// 投稿順を保つため、既存レコードを同じ位置で上書きする。
			recordID = existing.ID
			for i := range responses {
				if responses[i].ID == recordID {
					responses[i].Text = text
					responses[i].UpdatedAt = now
					break
				}
			}
		} else {
			recordID = uuid.NewString()
			created = true
			responses = append(responses, domain.ResponseRecord{
				ID:        recordID,
				UserID:    cmd.ActorID,
				Text:      text,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}

		updated, err := s.repo.UpdateResponses(ctx, cmd.SurveyID, survey.Revision, responses)
		if err != nil {
			if isRetryableConflict(err) {
				continue
			}
			return nil, false, err
		}

		record, ok := updated.ResponseByID(recordID)
		if !ok {
			return nil, false, domain.ErrResponseNotFound
		}
		return record, created, nil
	}

	return nil, false, domain.ErrRevisionConflict
}

// UpdateResponse は回答本文の編集。所有者本人のみ許可され、作成者権限だけでは不可。
// 所有者が作成者を兼ねる場合に限り、締切・期限のゲートを通過できる。
func (s *surveyLifecycleService) UpdateResponse(ctx context.Context, cmd UpdateResponseCommand) (*domain.ResponseRecord, error) {
	text, err := domain.NewResponseText(cmd.Text)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		survey, err := s.repo.FindByID(ctx, cmd.SurveyID)
		if err != nil {
			return nil, err
		}

		if _, ok := survey.ResponseByID(cmd.ResponseID); !ok {
			return nil, domain.ErrResponseNotFound
		}

		role := domain.ResolveRole(survey, cmd.ActorID, cmd.ResponseID)
		if !role.CanUpdateResponse() {
			return nil, domain.ErrUnauthorized
		}

		now := s.now()
		if !role.IsCreator() {
			if survey.Closed {
				return nil, domain.ErrSurveyClosed
			}
			if survey.IsExpired(now) {
				return nil, domain.ErrSurveyExpired
			}
		}

		responses := make([]domain.ResponseRecord, len(survey.Responses))
		copy(responses, survey.Responses)
		for i := range responses {
			if responses[i].ID == cmd.ResponseID {
				responses[i].Text = text
				responses[i].UpdatedAt = now
				break
			}
		}

		updated, err := s.repo.UpdateResponses(ctx, cmd.SurveyID, survey.Revision, responses)
		if err != nil {
			if isRetryableConflict(err) {
				continue
			}
			return nil, err
		}

		record, ok := updated.ResponseByID(cmd.ResponseID)
		if !ok {
			return nil, domain.ErrResponseNotFound
		}
		return record, nil
	}

	return nil, domain.ErrRevisionConflict
}

// DeleteResponse は回答の削除。所有者または作成者が実行できる。
// 締切・期限のゲートは現行仕様どおり適用しない（編集との非対称は要プロダクト確認）。
func (s *surveyLifecycleService) DeleteResponse(ctx context.Context, surveyID, responseID, actorID string) error {
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		survey, err := s.repo.FindByID(ctx, surveyID)
		if err != nil {
			return err
		}

		if _, ok := survey.ResponseByID(responseID); !ok {
			return domain.ErrResponseNotFound
		}

		role := domain.ResolveRole(survey, actorID, responseID)
		if !role.CanDeleteResponse() {
			return domain.ErrUnauthorized
		}

		responses := make([]domain.ResponseRecord, 0, len(survey.Responses))
		for _, record := range survey.Responses {
			if record.ID == responseID {
				continue
			}
			responses = append(responses, record)
		}

		if _, err := s.repo.UpdateResponses(ctx, surveyID, survey.Revision, responses); err != nil {
			if isRetryableConflict(err) {
				continue
			}
			return err
		}
		return nil
	}

	return domain.ErrRevisionConflict
}

// UserResponse は本人確認付きで自分の回答を返す。
func (s *surveyLifecycleService) UserResponse(ctx context.Context, surveyID, userID, requesterID string) (*domain.ResponseRecord, error) {
	if requesterID == "" || requesterID != userID {
		return nil, domain.ErrUnauthorized
	}

	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	record, ok := survey.ResponseByUser(userID)
	if !ok {
		return nil, domain.ErrResponseNotFound
	}
	return record, nil
}

// ResponseCount は回答数を返す。
func (s *surveyLifecycleService) ResponseCount(ctx context.Context, surveyID string) (int, error) {
	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		return 0, err
	}
	return survey.RespondentCount(), nil
}

// Analytics は読み込んだ集約に対する純粋な派生統計を返す。作成者のみ参照できる。
func (s *surveyLifecycleService) Analytics(ctx context.Context, surveyID, actorID string) (*SurveyAnalytics, error) {
	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	role := domain.ResolveRole(survey, actorID, "")
	if !role.IsCreator() {
		return nil, domain.ErrUnauthorized
	}

	analytics := &SurveyAnalytics{
		ResponseCount: survey.RespondentCount(),
		Entries:       make([]ResponseStat, 0, len(survey.Responses)),
	}

	totalLength := 0
	for _, record := range survey.Responses {
		length := utf8.RuneCountInString(record.Text)
		totalLength += length
		analytics.Entries = append(analytics.Entries, ResponseStat{
			ResponseID:  record.ID,
			TextLength:  length,
			SubmittedAt: record.CreatedAt,
			UpdatedAt:   record.UpdatedAt,
		})
	}
	if analytics.ResponseCount > 0 {
		analytics.AverageTextLength = float64(totalLength) / float64(analytics.ResponseCount)
	}

	return analytics, nil
}

func isRetryableConflict(err error) bool {
	return errors.Is(err, domain.ErrRevisionConflict)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	value := t.UTC()
	return &value
}
