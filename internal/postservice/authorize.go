package postservice

import "github.com/sushihentaime/postboard/internal/userservice"

type Action int

const (
	ActionView Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Decision is the outcome of an authorization check. Unauthenticated and
// Forbidden are distinct so that callers can answer 401 and 403 without
// guessing, and neither is ever folded into a not-found outcome.
type Decision int

const (
	Allowed Decision = iota
	Unauthenticated
	Forbidden
)

// Authorize decides whether actor may perform action on a resource owned by
// ownerID. Reads are public, creation needs any authenticated actor, and
// mutation is reserved for the owner. The function is a pure predicate: it
// never touches storage, so the caller must have resolved the resource (and
// its 404) first.
func Authorize(actor *userservice.User, action Action, ownerID int) Decision {
	if action == ActionView {
		return Allowed
	}

	if actor == nil || actor.IsAnonymous() {
		return Unauthenticated
	}

	if action == ActionCreate {
		return Allowed
	}

	if actor.ID != ownerID {
		return Forbidden
	}

	return Allowed
}
