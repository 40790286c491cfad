package shared

import (
	"net/http"
	"strconv"
)

// Actor identifies the authenticated caller as resolved by the outer
// gateway. Authentication itself happens upstream; this service trusts
// the forwarded identity headers.
type Actor struct {
	ID   int64
	Role string
}

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
	headerOrgID     = "X-Org-ID"

	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// ActorFromRequest extracts the forwarded actor identity.
func ActorFromRequest(r *http.Request) Actor {
	id, _ := strconv.ParseInt(r.Header.Get(headerActorID), 10, 64)
	return Actor{ID: id, Role: r.Header.Get(headerActorRole)}
}

// IsElevated reports whether the actor may mutate ledger configuration.
func (a Actor) IsElevated() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// OrgFromRequest extracts the forwarded org scope.
func OrgFromRequest(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(headerOrgID), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
