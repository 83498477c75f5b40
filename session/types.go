// Package session defines the session-handoff payloads produced by the web
// front end and the device-local cache entry they are projected into.
package session

// State is the device's sign-in state, derived from the cache as a whole
// rather than inferred from individual field presence.
type State int

const (
	SignedOut State = iota
	SignedIn
)

func (s State) String() string {
	if s == SignedIn {
		return "signed_in"
	}
	return "signed_out"
}

// Entry is the per-device projection of the user's session plus their
// entitlement status. It is denormalized, possibly stale, last-write-wins.
// Only the background coordinator writes it; every context reads it.
type Entry struct {
	Email              string `json:"email"`
	SubscriptionStatus string `json:"subscriptionStatus"`
	UserID             string `json:"userId"`
	AccessToken        string `json:"access_token"`
	RefreshToken       string `json:"refresh_token,omitempty"`
}

// Complete reports whether the entry carries the fields every gated flow
// needs. A partial entry is treated as signed out.
func (e Entry) Complete() bool {
	return e.Email != "" && e.UserID != "" && e.AccessToken != ""
}

// User is the flat user payload carried by a SESSION_ESTABLISHED handoff.
type User struct {
	Email              string `json:"email"`
	SubscriptionStatus string `json:"subscriptionStatus"`
	UserID             string `json:"userId"`
	AccessToken        string `json:"access_token"`
	RefreshToken       string `json:"refresh_token,omitempty"`
}

// Handoff is the nested session object carried by a STORE_SESSION handoff,
// mirroring the identity provider's session shape.
type Handoff struct {
	User struct {
		ID                 string `json:"id"`
		Email              string `json:"email"`
		SubscriptionStatus string `json:"subscriptionStatus"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// EntryFromUser projects a flat handoff payload into a cache entry.
func EntryFromUser(u User) Entry {
	return Entry{
		Email:              u.Email,
		SubscriptionStatus: u.SubscriptionStatus,
		UserID:             u.UserID,
		AccessToken:        u.AccessToken,
		RefreshToken:       u.RefreshToken,
	}
}

// EntryFromHandoff projects a nested session handoff into a cache entry.
func EntryFromHandoff(h Handoff) Entry {
	return Entry{
		Email:              h.User.Email,
		SubscriptionStatus: h.User.SubscriptionStatus,
		UserID:             h.User.ID,
		AccessToken:        h.AccessToken,
		RefreshToken:       h.RefreshToken,
	}
}
