package lifecycle

import "github.com/YelzhanWeb/hookah/internal/domain"

// AllowedActions returns the action kinds a session in state s accepts.
// Anything outside this set is refused regardless of trust.
func AllowedActions(s domain.State) []domain.ActionKind {
	switch s {
	case domain.StateReady:
		return []domain.ActionKind{
			domain.KindDeliverNow, domain.KindMarkOut, domain.KindSetBuffer,
			domain.KindSetZone, domain.KindCancel, domain.KindAddItem,
		}
	case domain.StateOut:
		return []domain.ActionKind{
			domain.KindMarkDelivered, domain.KindSetBuffer, domain.KindSetZone,
			domain.KindReassignRunner, domain.KindCancel, domain.KindUndo,
		}
	case domain.StateDelivered:
		return []domain.ActionKind{domain.KindStartActive, domain.KindUndo}
	case domain.StateActive:
		return []domain.ActionKind{
			domain.KindClose, domain.KindExtendMin, domain.KindAddItem, domain.KindUndo,
		}
	case domain.StateClose:
		return []domain.ActionKind{domain.KindUndo}
	default:
		// CANCELLED is absorbing and irreversible.
		return nil
	}
}

// IsAllowed reports whether kind is in the allowed set of s.
func IsAllowed(s domain.State, kind domain.ActionKind) bool {
	for _, k := range AllowedActions(s) {
		if k == kind {
			return true
		}
	}
	return false
}

// forwardTarget maps a state-changing kind to the state it leads to.
// ok is false for attribute-mutating kinds and for UNDO.
func forwardTarget(kind domain.ActionKind) (domain.State, bool) {
	switch kind {
	case domain.KindDeliverNow, domain.KindMarkOut:
		return domain.StateOut, true
	case domain.KindMarkDelivered:
		return domain.StateDelivered, true
	case domain.KindStartActive:
		return domain.StateActive, true
	case domain.KindClose:
		return domain.StateClose, true
	case domain.KindCancel:
		return domain.StateCancelled, true
	}
	return "", false
}

// undoTarget is the single predecessor of s in the forward chain.
func undoTarget(s domain.State) (domain.State, bool) {
	switch s {
	case domain.StateOut:
		return domain.StateReady, true
	case domain.StateDelivered:
		return domain.StateOut, true
	case domain.StateActive:
		return domain.StateDelivered, true
	case domain.StateClose:
		return domain.StateActive, true
	}
	return "", false
}
