package domain

import (
	"errors"
	"fmt"
)

// ライフサイクル操作の結果は以下の番兵エラーへ正確に分類する。
// 呼び出し側は errors.Is で分岐でき、文字列比較に頼ることはない。
var (
	// ErrValidation is returned when an input payload fails shape validation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is the base error for missing entities.
	ErrNotFound = errors.New("not found")

	// ErrSurveyNotFound indicates the survey aggregate does not exist.
	ErrSurveyNotFound = fmt.Errorf("%w: survey", ErrNotFound)

	// ErrResponseNotFound indicates the embedded response record does not exist.
	ErrResponseNotFound = fmt.Errorf("%w: response", ErrNotFound)

	// ErrUnauthorized is returned when the actor lacks the required role.
	ErrUnauthorized = errors.New("operation not permitted for this actor")

	// ErrDomainNotPermitted is returned when the actor's email domain is outside
	// the survey's permitted domains.
	ErrDomainNotPermitted = fmt.Errorf("%w: email domain not permitted", ErrUnauthorized)

	// ErrStateConflict is the base error for lifecycle-rule rejections.
	ErrStateConflict = errors.New("survey state conflict")

	// ErrSurveyClosed rejects writes against a closed survey.
	ErrSurveyClosed = fmt.Errorf("%w: survey is closed", ErrStateConflict)

	// ErrSurveyExpired rejects writes against an expired survey.
	ErrSurveyExpired = fmt.Errorf("%w: survey is expired", ErrStateConflict)

	// ErrQuotaExceeded rejects a first-time respondent once the distinct
	// respondent quota is reached. Existing respondents may always resubmit.
	ErrQuotaExceeded = fmt.Errorf("%w: respondent quota exceeded", ErrStateConflict)

	// ErrClosedSurveyExpiry rejects expiry changes on a closed survey.
	ErrClosedSurveyExpiry = fmt.Errorf("%w: cannot change expiry of a closed survey", ErrStateConflict)

	// ErrPastExpiryDate rejects expiry dates that are not in the future.
	ErrPastExpiryDate = fmt.Errorf("%w: expiry date must be in the future", ErrStateConflict)

	// ErrRevisionConflict reports a concurrent write detected by the revision
	// check. Retryable: the caller must re-load and re-decide, not re-apply.
	ErrRevisionConflict = errors.New("concurrent modification detected")

	// ErrPersistence reports a document store failure other than a missing
	// entity or a revision conflict.
	ErrPersistence = errors.New("persistence failure")

	// ErrSummaryUnavailable reports a failure of the AI summarization
	// collaborator. It never invalidates already-persisted survey state.
	ErrSummaryUnavailable = errors.New("summary service unavailable")
)

// NewValidationError は ErrValidation を包んだ検証エラーを生成する。
func NewValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}
