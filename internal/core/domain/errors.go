package domain

import "errors"

var (
	ErrVoterNotFound              = errors.New("voter not found")
	ErrElectionNotFound           = errors.New("election not found")
	ErrElectionInactive           = errors.New("election is not active")
	ErrVotingWindowClosed         = errors.New("voting window is closed")
	ErrAlreadyVoted               = errors.New("voter has already voted in this election")
	ErrDuplicateCategorySelection = errors.New("more than one selection for the same category")
	ErrInvalidSelection           = errors.New("invalid selection for this election")
	ErrStorageFault               = errors.New("storage fault")
	ErrRelayUnavailable           = errors.New("relay unavailable")

	ErrUnauthorized = errors.New("unauthorized")
)

// Kind is the machine-readable name of an admission failure.
type Kind string

const (
	KindVoterNotFound              Kind = "VoterNotFound"
	KindElectionNotFound           Kind = "ElectionNotFound"
	KindElectionInactive           Kind = "ElectionInactive"
	KindVotingWindowClosed         Kind = "VotingWindowClosed"
	KindAlreadyVoted               Kind = "AlreadyVoted"
	KindDuplicateCategorySelection Kind = "DuplicateCategorySelection"
	KindInvalidSelection           Kind = "InvalidSelection"
	KindStorageFault               Kind = "StorageFault"
	KindRelayUnavailable           Kind = "RelayUnavailable"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrVoterNotFound, KindVoterNotFound},
	{ErrElectionNotFound, KindElectionNotFound},
	{ErrElectionInactive, KindElectionInactive},
	{ErrVotingWindowClosed, KindVotingWindowClosed},
	{ErrAlreadyVoted, KindAlreadyVoted},
	{ErrDuplicateCategorySelection, KindDuplicateCategorySelection},
	{ErrInvalidSelection, KindInvalidSelection},
	{ErrRelayUnavailable, KindRelayUnavailable},
	{ErrStorageFault, KindStorageFault},
}

// KindOf maps err to its taxonomy kind. Anything unrecognised is a storage
// fault, since the core has no other source of unexpected errors.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindStorageFault
}
