package auth

import "strings"

type Role string

const (
	RoleAttendee  Role = "ATTENDEE"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// ValidRole reports whether the raw value names one of the three roles.
func ValidRole(role string) bool {
	switch Role(strings.ToUpper(strings.TrimSpace(role))) {
	case RoleAttendee, RoleOrganizer, RoleAdmin:
		return true
	default:
		return false
	}
}

// NormalizeRole maps a raw role string to a Role, defaulting to ATTENDEE.
func NormalizeRole(role string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(role))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleOrganizer:
		return RoleOrganizer
	default:
		return RoleAttendee
	}
}

func HasRole(role Role, allowed ...Role) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role Role) bool {
	return role == RoleAdmin
}

// CanModify is the ownership predicate shared by event update and delete:
// the organizer who created the event, or any admin.
func CanModify(p Principal, organizerID string) bool {
	return p.ID == organizerID || IsAdmin(p.Role)
}
