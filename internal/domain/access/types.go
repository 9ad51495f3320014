package access

import (
	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/users"
)

type Role string

const (
	RoleViewer Role = users.RoleViewer
	RoleArtist Role = users.RoleArtist
	RoleAdmin  Role = users.RoleAdmin
)

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	ID    uint
	Role  Role
	Email string
}

func ActorFor(u users.User) Actor {
	return Actor{ID: u.ID, Role: Role(u.Role), Email: u.Email}
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) Authenticated() bool { return a.ID != 0 }

type Resource string

const (
	Artwork    Resource = "artwork"
	Order      Resource = "order"
	Gallery    Resource = "gallery"
	Exhibition Resource = "exhibition"
	Comment    Resource = "comment"
	User       Resource = "user"
)

type Action string

const (
	Create       Action = "create"
	Read         Action = "read"
	ListAll      Action = "list_all"
	Update       Action = "update"
	Delete       Action = "delete"
	Like         Action = "like"
	Checkout     Action = "checkout"
	UpdateStatus Action = "update_status"
	ChangeRole   Action = "change_role"
)

// Target is what an action is performed on. Owner is only meaningful for
// resources that have one (artwork artist, order buyer, comment author).
type Target struct {
	Resource Resource
	OwnerID  uint
	owned    bool
}

func On(r Resource) Target { return Target{Resource: r} }

func OwnedBy(r Resource, ownerID uint) Target {
	return Target{Resource: r, OwnerID: ownerID, owned: true}
}

var validRoles = map[string]bool{
	users.RoleViewer: true,
	users.RoleArtist: true,
	users.RoleAdmin:  true,
}

func ValidateRole(role string) error {
	if !validRoles[role] {
		return apperr.Newf(apperr.InvalidInput, "role must be one of viewer, artist, admin (got %q)", role)
	}
	return nil
}
