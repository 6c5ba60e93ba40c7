package lifecycle

import "github.com/YelzhanWeb/hookah/internal/domain"

// RequiredTrust is the minimum trust level for kind. Unknown kinds demand
// more than any user can hold.
func RequiredTrust(kind domain.ActionKind) domain.TrustLevel {
	switch kind {
	case domain.KindDeliverNow, domain.KindMarkOut, domain.KindSetBuffer,
		domain.KindSetZone, domain.KindAddItem:
		return domain.TrustBasic
	case domain.KindMarkDelivered, domain.KindStartActive, domain.KindExtendMin,
		domain.KindUndo, domain.KindReassignRunner:
		return domain.TrustVerified
	case domain.KindClose, domain.KindCancel:
		return domain.TrustAdmin
	}
	return domain.TrustAdmin + 1
}

// HasTrustLevel reports whether have covers need.
func HasTrustLevel(have, need domain.TrustLevel) bool {
	return have >= need
}

// CanPerformAction is the capability check UIs use to pre-disable controls.
func CanPerformAction(u domain.User, kind domain.ActionKind) bool {
	return HasTrustLevel(u.TrustLevel(), RequiredTrust(kind))
}

// PermittedActions returns the kinds that are both legal in s and covered
// by u's trust.
func PermittedActions(u domain.User, s domain.State) []domain.ActionKind {
	var out []domain.ActionKind
	for _, k := range AllowedActions(s) {
		if CanPerformAction(u, k) {
			out = append(out, k)
		}
	}
	return out
}
