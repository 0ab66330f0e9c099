package service

import "ticket-office/internal/entity"

// Access rules are pure functions over the caller's identity so the services
// can share them and the tests can cover them without a database.

func canReadUser(caller *entity.User, targetID int64) bool {
	if caller.RoleOrEmpty() == entity.RoleAdmin {
		return true
	}
	return caller.ID == targetID
}

func canListUsers(caller *entity.User) bool {
	return caller.RoleOrEmpty() == entity.RoleAdmin
}

func canDeleteUser(caller *entity.User, targetID int64) bool {
	if caller.RoleOrEmpty() == entity.RoleAdmin {
		return true
	}
	return caller.ID == targetID
}

// canUpdateUser gates the update as a whole; per-field rules live in
// userService.Update because they depend on which field is present.
func canUpdateUser(caller *entity.User, targetID int64) bool {
	if caller.RoleOrEmpty() == entity.RoleAdmin {
		return true
	}
	return caller.ID == targetID
}

func canCreateEvent(caller *entity.User) bool {
	switch caller.RoleOrEmpty() {
	case entity.RoleAdmin, entity.RoleOrganizer:
		return true
	}
	return false
}

// canManageEvent gates event mutation and removal on role alone. There is
// deliberately no ownership check: any organizer may edit any event.
func canManageEvent(caller *entity.User) bool {
	switch caller.RoleOrEmpty() {
	case entity.RoleAdmin, entity.RoleOrganizer:
		return true
	}
	return false
}

// canSellFor reports whether the caller may record a sale on behalf of the
// given seller. Sellers always act for themselves; admins act for anyone.
func canSellFor(caller *entity.User, sellerID int64) bool {
	if caller.RoleOrEmpty() == entity.RoleAdmin {
		return true
	}
	return caller.ID == sellerID
}

func canManageBuyers(caller *entity.User) bool {
	return caller.RoleOrEmpty() == entity.RoleAdmin
}

func canDeleteTicket(caller *entity.User) bool {
	return caller.RoleOrEmpty() == entity.RoleAdmin
}
