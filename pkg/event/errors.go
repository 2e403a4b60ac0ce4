package event

import (
	"errors"

	"github.com/tally-app/tally/pkg/rule"
)

// Errors returned while creating an event. They are wrapped by a validation error.
var (
	ErrGroupNotFound = errors.New("group-not-found")
	ErrNotAMember    = errors.New("not-a-member")
	ErrRuleMismatch  = rule.ErrRuleMismatch
)

// Errors returned while casting a veto.
var (
	ErrEventNotFound     = errors.New("event-not-found")
	ErrNotPending        = errors.New("not-pending")
	ErrExpired           = errors.New("expired")
	ErrAccessDenied      = errors.New("access-denied")
	ErrSelfVoteForbidden = errors.New("self-vote-forbidden")
	ErrDuplicateVote     = errors.New("duplicate-vote")
)
