package access

import (
	"gallery-api/internal/apperr"
)

type rule struct {
	// roles allowed to attempt the action; empty means any authenticated actor
	roles []Role
	// owner requires the actor to own the target
	owner bool
	// adminOnly denies everyone but admins
	adminOnly bool
}

type key struct {
	resource Resource
	action   Action
}

// rules is the full authorization table. Anything missing is denied.
// Admins bypass every rule, including ownership.
var rules = map[key]rule{
	{Artwork, Create}: {roles: []Role{RoleArtist}},
	{Artwork, Update}: {roles: []Role{RoleArtist}, owner: true},
	{Artwork, Delete}: {roles: []Role{RoleArtist}, owner: true},
	{Artwork, Like}:   {},

	{Order, Checkout}:     {},
	{Order, Read}:         {owner: true},
	{Order, ListAll}:      {adminOnly: true},
	{Order, UpdateStatus}: {adminOnly: true},

	{Gallery, Create}: {adminOnly: true},
	{Gallery, Update}: {adminOnly: true},
	{Gallery, Delete}: {adminOnly: true},

	{Exhibition, Create}: {adminOnly: true},
	{Exhibition, Update}: {adminOnly: true},
	{Exhibition, Delete}: {adminOnly: true},

	{Comment, Create}: {},
	{Comment, Update}: {owner: true},
	{Comment, Delete}: {owner: true},

	{User, Read}:       {owner: true},
	{User, ListAll}:    {adminOnly: true},
	{User, Update}:     {adminOnly: true},
	{User, Delete}:     {adminOnly: true},
	{User, ChangeRole}: {adminOnly: true},
}

var (
	ErrNotLoggedIn = apperr.New(apperr.Unauthorized, "You are not logged in! Please log in to get access.")
	ErrForbidden   = apperr.New(apperr.Forbidden, "You do not have permission to perform this action")
)

// Authorize decides whether actor may perform action on target. Callers load
// the target first, so a missing resource surfaces as NotFound before this
// is ever consulted.
func Authorize(actor Actor, action Action, target Target) error {
	if !actor.Authenticated() {
		return ErrNotLoggedIn
	}
	r, ok := rules[key{target.Resource, action}]
	if !ok {
		return ErrForbidden
	}
	if actor.IsAdmin() {
		return nil
	}
	if r.adminOnly {
		return ErrForbidden
	}
	if len(r.roles) > 0 && !hasRole(r.roles, actor.Role) {
		return ErrForbidden
	}
	if r.owner {
		if !target.owned || target.OwnerID != actor.ID {
			return ErrForbidden
		}
	}
	return nil
}

// Can is Authorize as a predicate.
func Can(actor Actor, action Action, target Target) bool {
	return Authorize(actor, action, target) == nil
}

func hasRole(allowed []Role, role Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
