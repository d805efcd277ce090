package models

type MatchStatus int

const (
	// Pending is the proposer's side: waiting on the counterpart.
	Pending MatchStatus = iota + 1
	// AwaitingUserAction is the receiver's side: this user has to decide.
	AwaitingUserAction
	Accepted
	Denied
)

func (s MatchStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case AwaitingUserAction:
		return "awaiting_user_action"
	case Accepted:
		return "accepted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

func (s MatchStatus) Terminal() bool {
	return s == Accepted || s == Denied
}

// Complementary reports whether s and other are the two undecided halves of one pair.
func (s MatchStatus) Complementary(other MatchStatus) bool {
	return (s == Pending && other == AwaitingUserAction) || (s == AwaitingUserAction && other == Pending)
}

// Match is one user's view of a relationship with a single counterpart. Name and
// Description are a snapshot taken when the match was proposed.
type Match struct {
	ID          string      `json:"id" bson:"id"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description" bson:"description"`
	Status      MatchStatus `json:"match_status" bson:"match_status"`
}

type MatchOperation string

const (
	OpPropose MatchOperation = "Add"
	OpAccept  MatchOperation = "Accept"
	OpReject  MatchOperation = "Reject"
)

func (op MatchOperation) Valid() bool {
	return op == OpPropose || op == OpAccept || op == OpReject
}

// TargetStatus is the terminal status Accept and Reject drive both sides to.
func (op MatchOperation) TargetStatus() MatchStatus {
	switch op {
	case OpAccept:
		return Accepted
	case OpReject:
		return Denied
	default:
		return 0
	}
}
