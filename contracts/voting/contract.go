package voting

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/voting-contract/common"
	"github.com/nspcc-dev/voting-contract/contracts/voting/votingconst"
)

// _deploy creates the poll. Deployment data is an array of owner
// (interop.Hash160 or nil for the transaction sender), list of options,
// entrance fee in GAS fractions and poll interval in seconds.
// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()

	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		owner       interop.Hash160
		options     []string
		entranceFee int
		interval    int
	})

	owner := args.owner
	if owner == nil {
		owner = runtime.GetScriptContainer().Sender
	} else if len(owner) != interop.Hash160Len {
		panic(votingconst.ErrInvalidConfiguration + ": incorrect owner length")
	}

	if len(args.options) == 0 {
		panic(votingconst.ErrInvalidConfiguration + ": no options")
	}

	for _, opt := range args.options {
		if len(opt) == 0 {
			panic(votingconst.ErrInvalidConfiguration + ": empty option")
		}

		key := votingconst.OptionPrefix + opt
		if storage.Get(ctx, key) != nil {
			panic(votingconst.ErrInvalidConfiguration + ": duplicated option " + opt)
		}

		storage.Put(ctx, key, 1)
	}

	if args.entranceFee < 0 {
		panic(votingconst.ErrInvalidConfiguration + ": negative entrance fee")
	}

	if args.interval <= 0 {
		panic(votingconst.ErrInvalidConfiguration + ": non-positive interval")
	}

	common.SetSerialized(ctx, votingconst.OptionsKey, args.options)
	storage.Put(ctx, votingconst.EntranceFeeKey, args.entranceFee)
	storage.Put(ctx, votingconst.IntervalKey, args.interval)
	storage.Put(ctx, votingconst.DeadlineKey, runtime.GetTime()+args.interval*1000)
	storage.Put(ctx, votingconst.StateKey, votingconst.Open)
	storage.Put(ctx, votingconst.OwnerKey, owner)

	runtime.Log("voting contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic(common.ErrUpdateForbidden)
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("voting contract updated")
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// It casts a vote of the `from` account for the option passed in `data`,
// `amount` is a payment for the vote.
//
// Checks are made in the following order: poll is open, amount covers the
// entrance fee, option is known, account has not voted yet. If any check
// fails, the method panics and GAS transfer is reverted.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		panic(votingconst.ErrGASOnly)
	}

	if len(from) != interop.Hash160Len {
		panic("voter is not specified")
	}

	ctx := storage.GetContext()

	if state(ctx) == votingconst.Closed {
		panic(votingconst.ErrPollClosed)
	}

	if amount < common.GetInt(ctx, votingconst.EntranceFeeKey) {
		panic(votingconst.ErrInsufficientPayment)
	}

	if !common.IsString(data) {
		panic(votingconst.ErrInvalidOption)
	}

	option := data.(string)
	if storage.Get(ctx, votingconst.OptionPrefix+option) == nil {
		panic(votingconst.ErrInvalidOption)
	}

	voterKey := append([]byte(votingconst.VoterPrefix), from...)
	if storage.Get(ctx, voterKey) != nil {
		panic(votingconst.ErrDuplicateVote)
	}

	storage.Put(ctx, voterKey, option)

	tallyKey := votingconst.TallyPrefix + option
	storage.Put(ctx, tallyKey, common.GetInt(ctx, tallyKey)+1)
	storage.Put(ctx, votingconst.TotalVotesKey, common.GetInt(ctx, votingconst.TotalVotesKey)+1)
	storage.Put(ctx, votingconst.CollectedKey, common.GetInt(ctx, votingconst.CollectedKey)+amount)

	runtime.Notify("Vote", from, option, amount)
}

// Close method closes the poll. Before the deadline only the owner can close
// the poll, after that anyone can. Closing a closed poll does nothing.
func Close() {
	ctx := storage.GetContext()

	if common.GetInt(ctx, votingconst.StateKey) == votingconst.Closed {
		return
	}

	now := runtime.GetTime()
	if now < common.GetInt(ctx, votingconst.DeadlineKey) {
		common.CheckOwnerWitness(getOwner(ctx), votingconst.ErrCloseForbidden)
	}

	storage.Put(ctx, votingconst.StateKey, votingconst.Closed)

	runtime.Notify("Close", now)
	runtime.Log("poll closed")
}

// Withdraw method transfers GAS collected from votes and not withdrawn yet to
// the specified account. It can be invoked only by the owner after the poll
// is closed.
func Withdraw(to interop.Hash160) {
	ctx := storage.GetContext()

	common.CheckOwnerWitness(getOwner(ctx), votingconst.ErrWithdrawForbidden)

	if len(to) != interop.Hash160Len {
		panic("invalid recipient")
	}

	if state(ctx) == votingconst.Open {
		panic(votingconst.ErrPollOpen)
	}

	collected := common.GetInt(ctx, votingconst.CollectedKey)
	amount := collected - common.GetInt(ctx, votingconst.WithdrawnKey)
	if amount == 0 {
		return
	}

	storage.Put(ctx, votingconst.WithdrawnKey, collected)

	if !gas.Transfer(runtime.GetExecutingScriptHash(), to, amount, nil) {
		panic("failed to transfer funds")
	}

	runtime.Notify("Withdraw", to, amount)
}

// State method returns the current poll state. The poll is reported as closed
// once the deadline has passed even if nobody has closed it.
func State() int {
	return state(storage.GetReadOnlyContext())
}

// Deadline method returns the poll deadline in milliseconds since Unix epoch.
func Deadline() int {
	return common.GetInt(storage.GetReadOnlyContext(), votingconst.DeadlineKey)
}

// EntranceFee method returns the minimum payment for a vote in GAS fractions.
func EntranceFee() int {
	return common.GetInt(storage.GetReadOnlyContext(), votingconst.EntranceFeeKey)
}

// Interval method returns the poll interval in seconds.
func Interval() int {
	return common.GetInt(storage.GetReadOnlyContext(), votingconst.IntervalKey)
}

// Options method returns poll options in deployment order.
func Options() []string {
	return common.GetStringList(storage.GetReadOnlyContext(), votingconst.OptionsKey)
}

// Tally method returns the number of votes for each option.
func Tally() map[string]int {
	ctx := storage.GetReadOnlyContext()
	options := common.GetStringList(ctx, votingconst.OptionsKey)

	res := map[string]int{}
	for _, opt := range options {
		res[opt] = common.GetInt(ctx, votingconst.TallyPrefix+opt)
	}

	return res
}

// Owner method returns the account allowed to close the poll early and to
// withdraw collected GAS.
func Owner() interop.Hash160 {
	return getOwner(storage.GetReadOnlyContext())
}

// Collected method returns the amount of GAS paid for all accepted votes.
func Collected() int {
	return common.GetInt(storage.GetReadOnlyContext(), votingconst.CollectedKey)
}

// Withdrawn method returns the amount of GAS already withdrawn by the owner.
func Withdrawn() int {
	return common.GetInt(storage.GetReadOnlyContext(), votingconst.WithdrawnKey)
}

// TotalVotes method returns the number of accepted votes.
func TotalVotes() int {
	return common.GetInt(storage.GetReadOnlyContext(), votingconst.TotalVotesKey)
}

// VoteOf method returns the option the account voted for or an empty string
// if the account has not voted.
func VoteOf(voter interop.Hash160) string {
	ctx := storage.GetReadOnlyContext()

	data := storage.Get(ctx, append([]byte(votingconst.VoterPrefix), voter...))
	if data == nil {
		return ""
	}

	return data.(string)
}

// Voters method returns an iterator over accepted votes. Each item is a
// structure of voter script hash and chosen option.
func Voters() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte(votingconst.VoterPrefix), storage.RemovePrefix)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func state(ctx storage.Context) int {
	if common.GetInt(ctx, votingconst.StateKey) == votingconst.Closed ||
		runtime.GetTime() >= common.GetInt(ctx, votingconst.DeadlineKey) {
		return votingconst.Closed
	}

	return votingconst.Open
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, votingconst.OwnerKey).(interop.Hash160)
}
