package votingconst

// Poll states as returned by the contract's `state` method.
const (
	_ = iota

	// Open stands for a poll accepting votes.
	Open

	// Closed stands for a poll that no longer accepts votes. It is terminal.
	Closed
)

// Exception messages thrown by the Voting contract.
const (
	ErrInvalidConfiguration = "invalid configuration"
	ErrPollClosed           = "poll is closed"
	ErrPollOpen             = "poll is open"
	ErrInsufficientPayment  = "insufficient payment"
	ErrInvalidOption        = "invalid option"
	ErrDuplicateVote        = "duplicate vote"
	ErrCloseForbidden       = "only owner can close poll before deadline"
	ErrWithdrawForbidden    = "only owner can withdraw"
	ErrGASOnly              = "voting contract accepts GAS only"
)

// Storage keys of the Voting contract.
const (
	EntranceFeeKey = "f"
	IntervalKey    = "i"
	DeadlineKey    = "d"
	StateKey       = "s"
	OwnerKey       = "w"
	CollectedKey   = "c"
	WithdrawnKey   = "x"
	TotalVotesKey  = "n"
	OptionsKey     = "l"

	OptionPrefix = "m"
	TallyPrefix  = "t"
	VoterPrefix  = "v"
)
