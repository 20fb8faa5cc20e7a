package wire

// Action identifies the command carried by a request frame.
type Action uint32

const (
	ActionLogin    Action = 1
	ActionLogout   Action = 2
	ActionMove     Action = 3
	ActionUpgrade  Action = 4
	ActionTurn     Action = 5
	ActionMap      Action = 10
	ActionObserver Action = 100
	ActionGame     Action = 101
	// ActionEvent is server-internal (replay bookkeeping); clients never
	// send it and the session handler rejects it if they try.
	ActionEvent Action = 102
)

func (a Action) String() string {
	switch a {
	case ActionLogin:
		return "LOGIN"
	case ActionLogout:
		return "LOGOUT"
	case ActionMove:
		return "MOVE"
	case ActionUpgrade:
		return "UPGRADE"
	case ActionTurn:
		return "TURN"
	case ActionMap:
		return "MAP"
	case ActionObserver:
		return "OBSERVER"
	case ActionGame:
		return "GAME"
	case ActionEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// noPayloadActions are documented as taking no request body; the
// codec tolerates a missing length prefix for these and treats the
// payload as "{}" per §4.1.
var noPayloadActions = map[Action]bool{
	ActionLogout:   true,
	ActionObserver: true,
}

// ToleratesMissingLength reports whether a is allowed to omit its
// length prefix on the wire.
func (a Action) ToleratesMissingLength() bool {
	return noPayloadActions[a]
}
