// Package bus connects the isolated execution contexts of the companion
// add-on: the background coordinator, injected page scripts, the panel UI,
// the settings UI, and the external channel web pages use to hand off a
// freshly established session. Contexts share no memory; everything moves
// through typed messages and the device cache.
package bus

import (
	"errors"

	"github.com/open-rails/tutorkit/session"
)

// Message types. Wire names are frozen; the front end and the injected
// scripts ship separately from this module.
type Type string

const (
	TypeSessionEstablished Type = "SESSION_ESTABLISHED"
	TypeStoreSession       Type = "STORE_SESSION"
	TypeGetAnswer          Type = "GET_ANSWER"
	TypeGetExplanation     Type = "GET_EXPLANATION"
	TypeSignOut            Type = "SIGN_OUT"
	TypeSignedOut          Type = "SIGNED_OUT"
	TypeToggleOverlay      Type = "TOGGLE_OVERLAY"
)

// ContextKind identifies the execution context on the other end of a
// connection.
type ContextKind string

const (
	KindPanel    ContextKind = "panel"
	KindSettings ContextKind = "settings"
	KindContent  ContextKind = "content"
)

// ErrChannelUnavailable is surfaced to a sender whose target context is not
// present or not yet initialized. There is no queueing and no retry; the
// caller prompts the user to try again.
var ErrChannelUnavailable = errors.New("bus: channel unavailable")

// Envelope is one bus transit. Exactly one payload group is populated,
// selected by Type. CorrelationID is carried for wire compatibility but
// replies are paired per connection, not routed through an id pool.
type Envelope struct {
	Type             Type             `json:"type"`
	CorrelationID    string           `json:"correlationId,omitempty"`
	ResponseExpected bool             `json:"responseExpected,omitempty"`
	UserData         *session.User    `json:"userData,omitempty"`
	Session          *session.Handoff `json:"session,omitempty"`
	Text             string           `json:"text,omitempty"`
	Answer           string           `json:"answer,omitempty"`
	Visible          *bool            `json:"visible,omitempty"`
}

// ExternalReply answers a message from the external channel.
type ExternalReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OpReply answers a gated-operation request from an internal context.
type OpReply struct {
	Answer          string `json:"answer,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
	Error           string `json:"error,omitempty"`
	RequiresUpgrade bool   `json:"requiresUpgrade,omitempty"`
	CorrelationID   string `json:"correlationId,omitempty"`
}
