package domain

// Role はアンケートと回答に対する行為者の立場。純粋な解決関数であり I/O を持たない。
type Role int

const (
	// RoleOther は作成者でも回答所有者でもない行為者。
	RoleOther Role = iota
	// RoleCreator はアンケート作成者。
	RoleCreator
	// RoleResponseOwner は対象回答の所有者。
	RoleResponseOwner
	// RoleCreatorAndOwner は作成者かつ対象回答の所有者。
	RoleCreatorAndOwner
)

// ResolveRole は (survey, actorID, responseID) から役割を解決する。
// responseID が空の場合、回答所有者としての判定は行わない。
func ResolveRole(survey *Survey, actorID, responseID string) Role {
	if actorID == "" {
		return RoleOther
	}

	creator := survey.CreatorID == actorID
	owner := false
	if responseID != "" {
		if record, ok := survey.ResponseByID(responseID); ok {
			owner = record.UserID == actorID
		}
	}

	switch {
	case creator && owner:
		return RoleCreatorAndOwner
	case creator:
		return RoleCreator
	case owner:
		return RoleResponseOwner
	default:
		return RoleOther
	}
}

// IsCreator は作成者権限を含むかを返す。
func (r Role) IsCreator() bool {
	return r == RoleCreator || r == RoleCreatorAndOwner
}

// IsOwner は回答所有者権限を含むかを返す。
func (r Role) IsOwner() bool {
	return r == RoleResponseOwner || r == RoleCreatorAndOwner
}

// CanClose はアンケートを締め切れるか。作成者のみ。
func (r Role) CanClose() bool {
	return r.IsCreator()
}

// CanExtendExpiry は回答期限を変更できるか。作成者のみ。
func (r Role) CanExtendExpiry() bool {
	return r.IsCreator()
}

// CanSubmitNew は新規回答を投稿できるか。認証済みであれば役割を問わない。
// 締切・期限・クォータの制約は役割ではなくライフサイクル側で判定する。
func (r Role) CanSubmitNew() bool {
	return true
}

// CanUpdateResponse は回答本文を編集できるか。所有者本人に限られ、
// 作成者であることだけでは他者の回答を編集できない。
func (r Role) CanUpdateResponse() bool {
	return r.IsOwner()
}

// CanDeleteResponse は回答を削除できるか。所有者または作成者。
func (r Role) CanDeleteResponse() bool {
	return r.IsOwner() || r.IsCreator()
}
