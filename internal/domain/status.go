package domain

// State is the lifecycle position of a session.
type State string

const (
	StateReady     State = "READY"
	StateOut       State = "OUT"
	StateDelivered State = "DELIVERED"
	StateActive    State = "ACTIVE"
	StateClose     State = "CLOSE"
	StateCancelled State = "CANCELLED"
)

// States lists every lifecycle state in flow order, cancelled last.
func States() []State {
	return []State{StateReady, StateOut, StateDelivered, StateActive, StateClose, StateCancelled}
}

func (s State) Valid() bool {
	switch s {
	case StateReady, StateOut, StateDelivered, StateActive, StateClose, StateCancelled:
		return true
	}
	return false
}

// Terminal reports whether no forward action can leave the state.
func (s State) Terminal() bool {
	return s == StateClose || s == StateCancelled
}

// Zone is a delivery zone of the lounge floor.
type Zone string

const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C"
	ZoneD Zone = "D"
	ZoneE Zone = "E"
)

func Zones() []Zone {
	return []Zone{ZoneA, ZoneB, ZoneC, ZoneD, ZoneE}
}

func (z Zone) Valid() bool {
	switch z {
	case ZoneA, ZoneB, ZoneC, ZoneD, ZoneE:
		return true
	}
	return false
}

// ActionKind names a requested transition.
type ActionKind string

const (
	KindDeliverNow     ActionKind = "DELIVER_NOW"
	KindMarkOut        ActionKind = "MARK_OUT"
	KindMarkDelivered  ActionKind = "MARK_DELIVERED"
	KindStartActive    ActionKind = "START_ACTIVE"
	KindClose          ActionKind = "CLOSE"
	KindCancel         ActionKind = "CANCEL"
	KindSetBuffer      ActionKind = "SET_BUFFER"
	KindSetZone        ActionKind = "SET_ZONE"
	KindAddItem        ActionKind = "ADD_ITEM"
	KindExtendMin      ActionKind = "EXTEND_MIN"
	KindUndo           ActionKind = "UNDO"
	KindReassignRunner ActionKind = "REASSIGN_RUNNER"
)

// ActionKinds lists every action kind.
func ActionKinds() []ActionKind {
	return []ActionKind{
		KindDeliverNow, KindMarkOut, KindMarkDelivered, KindStartActive,
		KindClose, KindCancel, KindSetBuffer, KindSetZone,
		KindAddItem, KindExtendMin, KindUndo, KindReassignRunner,
	}
}

func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds() {
		if k == known {
			return true
		}
	}
	return false
}
