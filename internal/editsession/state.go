package editsession

// State is the position of an edit session in its lifecycle.
type State int

const (
	Pristine State = iota
	Editing
	Validating
	Saving
	Saved
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pristine:
		return "pristine"
	case Editing:
		return "editing"
	case Validating:
		return "validating"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Mode says whether a session creates a memo or edits an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Outcome is how a successful submit completed.
type Outcome int

const (
	// Persisted means the server stored the memo.
	Persisted Outcome = iota + 1
	// NoOpSkip means an update had nothing to change and no request was made.
	NoOpSkip
)

func (o Outcome) String() string {
	switch o {
	case Persisted:
		return "persisted"
	case NoOpSkip:
		return "no-op"
	default:
		return "none"
	}
}
