package service

// Capability is what an actor is allowed to do.  Capabilities are
// ordered: an admin is also authenticated.
type Capability int

const (
	Anonymous Capability = iota
	Authenticated
	Admin
)

func (c Capability) String() string {
	switch c {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Actor is the caller of an operation as established by the transport
// layer.  UserID is zero for anonymous actors.
type Actor struct {
	UserID     uint64
	Capability Capability
}

// AnonymousActor is the zero-privilege caller.
var AnonymousActor = Actor{}

// IsAnonymous reports whether the actor carries no identity.
func (a Actor) IsAnonymous() bool {
	return a.Capability == Anonymous || a.UserID == 0
}

// Require checks that the actor holds at least capability c.
func (a Actor) Require(c Capability) error {
	if c == Anonymous {
		return nil
	}
	if a.IsAnonymous() {
		return ErrUnauthenticated
	}
	if a.Capability < c {
		return ErrForbidden
	}
	return nil
}

// RequireAnonymous rejects callers that already carry an identity.
func (a Actor) RequireAnonymous() error {
	if !a.IsAnonymous() {
		return ErrForbidden
	}
	return nil
}
