package like

// Phase is where the machine sits in a toggle.
type Phase int

const (
	Idle Phase = iota
	Pending
)

func (p Phase) String() string {
	if p == Pending {
		return "pending"
	}
	return "idle"
}

// Outcome records how the most recent toggle ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	Committed
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "none"
	}
}

const (
	HeartIcon       = "/icons/heart.svg"
	HeartFilledIcon = "/icons/heart-filled.png"
)

// Snapshot is an immutable copy of the machine's state. Transitions build
// new snapshots instead of mutating the current one, so restoring a
// pre-toggle snapshot is a plain assignment.
type Snapshot struct {
	Count   int
	Liked   bool
	Phase   Phase
	Outcome Outcome
	// Seeded is false until the count and like status have both been read.
	Seeded bool
}

// Pending reports whether the like control should be disabled.
func (s Snapshot) Pending() bool {
	return s.Phase == Pending
}

func (s Snapshot) HeartIcon() string {
	if s.Liked {
		return HeartFilledIcon
	}
	return HeartIcon
}

// toggled is the optimistic successor of s.
func (s Snapshot) toggled() Snapshot {
	next := s
	next.Liked = !s.Liked
	if s.Liked {
		next.Count = max(s.Count-1, 0)
	} else {
		next.Count = s.Count + 1
	}
	next.Phase = Pending
	next.Outcome = OutcomeNone
	return next
}

func (s Snapshot) settle(outcome Outcome) Snapshot {
	s.Phase = Idle
	s.Outcome = outcome
	return s
}
