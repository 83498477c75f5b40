package bus

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/tutorkit/entitlements"
	"github.com/open-rails/tutorkit/session"
)

// CacheStore is the device-local session cache. The coordinator is its only
// writer; every other context reads it (directly or by asking here).
type CacheStore interface {
	Write(ctx context.Context, e session.Entry) error
	Read(ctx context.Context) (session.Entry, session.State, error)
	Clear(ctx context.Context) error
}

// AnswerProvider performs the paid completion calls behind the gate.
type AnswerProvider interface {
	Answer(ctx context.Context, text string) (string, error)
	Explain(ctx context.Context, text, answer string) (string, error)
}

// Coordinator is the long-lived background context: sole cache writer,
// external-channel endpoint, and dispatcher for gated operations coming in
// from the page-injected contexts.
type Coordinator struct {
	cache          CacheStore
	answers        AnswerProvider
	hub            *Hub
	allowedOrigins map[string]bool
	log            *logrus.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAllowedOrigins restricts the external channel to the listed origins.
// With no list configured every origin is accepted on message type alone,
// exactly as the shipped front end relies on today; each acceptance is
// logged so the trust assumption stays visible.
func WithAllowedOrigins(origins []string) Option {
	return func(c *Coordinator) {
		if len(origins) == 0 {
			return
		}
		c.allowedOrigins = make(map[string]bool, len(origins))
		for _, o := range origins {
			c.allowedOrigins[o] = true
		}
	}
}

func NewCoordinator(cache CacheStore, answers AnswerProvider, hub *Hub, log *logrus.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Coordinator{cache: cache, answers: answers, hub: hub, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hub returns the hub internal contexts attach to.
func (c *Coordinator) Hub() *Hub { return c.hub }

// HandleExternal processes a message arriving over the external channel.
// The sender is arbitrary web content and is trusted only as far as the
// origin policy and the message type allow.
func (c *Coordinator) HandleExternal(ctx context.Context, origin string, env Envelope) ExternalReply {
	if c.allowedOrigins != nil && !c.allowedOrigins[origin] {
		c.log.WithFields(logrus.Fields{"origin": origin, "type": env.Type}).Warn("external message from disallowed origin")
		return ExternalReply{Success: false, Error: "origin not allowed"}
	}
	if c.allowedOrigins == nil {
		c.log.WithFields(logrus.Fields{"origin": origin, "type": env.Type}).Warn("accepting external message without origin check")
	}

	switch env.Type {
	case TypeSessionEstablished, TypeStoreSession:
		entry, ok := entryFromEnvelope(env)
		if !ok {
			return ExternalReply{Success: false, Error: "malformed session payload"}
		}
		if err := c.cache.Write(ctx, entry); err != nil {
			c.log.WithError(err).Error("session cache write failed")
			return ExternalReply{Success: false, Error: err.Error()}
		}
		c.log.WithFields(logrus.Fields{
			"user_id": entry.UserID,
			"status":  entry.SubscriptionStatus,
		}).Info("session stored")

		// Refresh the UI contexts without polling. The forwarded payload
		// omits the refresh token; only the cache holds it.
		user := session.User{
			Email:              entry.Email,
			SubscriptionStatus: entry.SubscriptionStatus,
			UserID:             entry.UserID,
			AccessToken:        entry.AccessToken,
		}
		c.hub.Broadcast(Envelope{Type: TypeSessionEstablished, UserData: &user}, KindPanel, KindSettings)
		return ExternalReply{Success: true}
	default:
		c.log.WithField("type", env.Type).Warn("unknown external message type")
		return ExternalReply{Success: false, Error: "unknown message type"}
	}
}

func entryFromEnvelope(env Envelope) (session.Entry, bool) {
	switch {
	case env.Type == TypeSessionEstablished && env.UserData != nil:
		e := session.EntryFromUser(*env.UserData)
		return e, e.Complete()
	case env.Type == TypeStoreSession && env.Session != nil:
		e := session.EntryFromHandoff(*env.Session)
		return e, e.Complete()
	default:
		return session.Entry{}, false
	}
}

// HandleInternal processes a message from a trusted context (panel,
// settings, injected script). Request types get a reply; broadcast types
// return nil.
func (c *Coordinator) HandleInternal(ctx context.Context, env Envelope) *OpReply {
	switch env.Type {
	case TypeGetAnswer:
		return c.gated(ctx, env, func(ctx context.Context) (OpReply, error) {
			out, err := c.answers.Answer(ctx, env.Text)
			return OpReply{Answer: out}, err
		}, "Failed to generate answer. Please try again.")
	case TypeGetExplanation:
		return c.gated(ctx, env, func(ctx context.Context) (OpReply, error) {
			out, err := c.answers.Explain(ctx, env.Text, env.Answer)
			return OpReply{Explanation: out}, err
		}, "Failed to generate explanation. Please try again.")
	case TypeSignOut:
		if err := c.cache.Clear(ctx); err != nil {
			c.log.WithError(err).Error("session cache clear failed")
			return &OpReply{Error: err.Error(), CorrelationID: env.CorrelationID}
		}
		c.log.Info("signed out, cache cleared")
		c.hub.Broadcast(Envelope{Type: TypeSignedOut}, KindPanel, KindSettings)
		return &OpReply{CorrelationID: env.CorrelationID}
	case TypeToggleOverlay:
		// Best-effort fan-out to live injected contexts; nobody waits.
		if c.hub.Broadcast(env, KindContent) == 0 {
			c.log.WithError(ErrChannelUnavailable).Debug("overlay toggle had no receiver")
		}
		return nil
	default:
		c.log.WithField("type", env.Type).Warn("unknown internal message type")
		return &OpReply{Error: "unknown message type", CorrelationID: env.CorrelationID}
	}
}

// EntitlementLookup reads the authoritative store. *entitlements.Store
// satisfies it.
type EntitlementLookup interface {
	GetActive(ctx context.Context, userID string) (*entitlements.Record, error)
}

// Refresh reconciles the cached subscription status against the
// authoritative store and re-broadcasts the session when it changed, so
// long-lived panels converge without polling. A signed-out device is left
// alone.
func (c *Coordinator) Refresh(ctx context.Context, store EntitlementLookup) error {
	entry, state, err := c.cache.Read(ctx)
	if err != nil || state != session.SignedIn {
		return err
	}
	rec, err := store.GetActive(ctx, entry.UserID)
	if err != nil {
		return err
	}
	status := entitlements.PlanFree
	if rec != nil {
		status = rec.PlanID
	}
	if status == entry.SubscriptionStatus {
		return nil
	}
	entry.SubscriptionStatus = status
	if err := c.cache.Write(ctx, entry); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"user_id": entry.UserID, "status": status}).Info("entitlement refreshed")
	user := session.User{
		Email:              entry.Email,
		SubscriptionStatus: entry.SubscriptionStatus,
		UserID:             entry.UserID,
		AccessToken:        entry.AccessToken,
	}
	c.hub.Broadcast(Envelope{Type: TypeSessionEstablished, UserData: &user}, KindPanel, KindSettings)
	return nil
}

// gated evaluates the feature gate against the cache before running the
// paid operation. A denied request never reaches the completion API.
func (c *Coordinator) gated(ctx context.Context, env Envelope, op func(context.Context) (OpReply, error), failure string) *OpReply {
	entry, state, err := c.cache.Read(ctx)
	if err != nil {
		c.log.WithError(err).Error("session cache read failed")
		return &OpReply{Error: failure, CorrelationID: env.CorrelationID}
	}
	if state != session.SignedIn || !entitlements.Allowed(entry.SubscriptionStatus) {
		return &OpReply{
			Error:           "Premium subscription required",
			RequiresUpgrade: true,
			CorrelationID:   env.CorrelationID,
		}
	}
	reply, err := op(ctx)
	if err != nil {
		c.log.WithError(err).WithField("type", env.Type).Error("gated operation failed")
		return &OpReply{Error: failure, CorrelationID: env.CorrelationID}
	}
	reply.CorrelationID = env.CorrelationID
	return &reply
}
