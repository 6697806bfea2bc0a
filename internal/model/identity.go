package model

// Identity is a resolved caller: either an authenticated user (UserRef
// set) or an anonymous guest (GuestID set). The zero value means the
// request carried no usable credentials.
type Identity struct {
	UserRef     UserRef
	GuestID     string
	DisplayName string
}

// IsZero reports whether no identity was resolved
func (i Identity) IsZero() bool {
	return i.UserRef == "" && i.GuestID == ""
}

// Registered reports whether the identity is backed by a durable account
func (i Identity) Registered() bool {
	return i.UserRef != ""
}

// Ref is the identity's stable caller id: the user ref for accounts,
// the guest id for guests, empty when no identity was resolved
func (i Identity) Ref() string {
	if i.UserRef != "" {
		return string(i.UserRef)
	}
	return i.GuestID
}

// AccessLevel is the permission tier computed for a caller against one
// session. Never stored; always recomputed from current state.
type AccessLevel string

const (
	AccessHost         AccessLevel = "host"
	AccessPlayer       AccessLevel = "player"
	AccessCanJoin      AccessLevel = "can_join"
	AccessGuestAllowed AccessLevel = "guest_allowed"
	AccessDenied       AccessLevel = "denied"
)

// CanMutate reports whether the level permits any write at all
func (a AccessLevel) CanMutate() bool {
	return a == AccessHost || a == AccessPlayer
}

// CanJoin reports whether the level permits taking a seat
func (a AccessLevel) CanJoin() bool {
	return a == AccessCanJoin || a == AccessGuestAllowed
}
