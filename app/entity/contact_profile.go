package entity

import (
	"strings"
	"time"
)

type UserKind string

const (
	UserKindInternal UserKind = "internal"
	UserKindExternal UserKind = "external"
)

// ParseUserKind maps free-form input to a known kind. Anything that is not
// explicitly internal is treated as external.
func ParseUserKind(raw string) UserKind {
	if strings.EqualFold(strings.TrimSpace(raw), string(UserKindInternal)) {
		return UserKindInternal
	}
	return UserKindExternal
}

// ContactProfile is the immutable snapshot of a user's contact fields as
// published by the profile source. Raw fields may be blank.
type ContactProfile struct {
	UserID             string
	Kind               UserKind
	Mobile             string
	Phone              string
	Email              string
	CommunicationEmail string
}

// ProfileChange is one row of the profile change feed.
type ProfileChange struct {
	Profile   *ContactProfile
	Deleted   bool
	UpdatedAt time.Time
}
