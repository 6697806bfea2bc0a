// Package access resolves what a caller may do with a session. The
// resolution is a pure function of the session, the caller's identity
// and the roster; handlers call it on every request rather than caching
// grants, so a status change or a join takes effect on the next poll.
package access

import (
	"github.com/tallydeck/tallydeck/internal/model"
)

// Resolve returns the caller's access level. Checks run in priority
// order and the first match wins:
//
//	host of the session        -> host
//	holder of a seated entry   -> player
//	holder of a left seat,
//	  session live with room   -> can_join
//	anonymous, guests allowed,
//	  session joinable         -> guest_allowed
//	identified, session
//	  joinable with room       -> can_join
//	otherwise                  -> denied
//
// A returning seat holder may rejoin an active session; brand-new
// joiners are admitted during the waiting phase only.
func Resolve(session *model.Session, identity model.Identity, roster []*model.Player) model.AccessLevel {
	if session == nil {
		return model.AccessDenied
	}

	if identity.Registered() && session.HostUserRef == identity.UserRef {
		return model.AccessHost
	}

	returning := false
	for _, player := range roster {
		if !player.HeldBy(identity) {
			continue
		}
		if player.Seated() {
			return model.AccessPlayer
		}
		returning = true
	}

	if returning {
		if !session.Status.Terminal() && seatFree(session, roster) {
			return model.AccessCanJoin
		}
		return model.AccessDenied
	}

	if session.Status != model.StatusWaiting || !seatFree(session, roster) {
		return model.AccessDenied
	}

	if identity.IsZero() {
		if session.AllowGuests {
			return model.AccessGuestAllowed
		}
		return model.AccessDenied
	}
	if !identity.Registered() && !session.AllowGuests {
		return model.AccessDenied
	}
	return model.AccessCanJoin
}

// seatFree reports whether at least one seat is open
func seatFree(session *model.Session, roster []*model.Player) bool {
	seated := 0
	for _, player := range roster {
		if player.Seated() {
			seated++
		}
	}
	return seated < session.MaxPlayers
}
