package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// Error taxonomy surfaced by the HTTP layer. Validation and signature
// failures are terminal; they are never retried here.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrMissingFields     = errors.New("missing required parameters")
	ErrSignatureMismatch = errors.New("invalid payment signature")
)

// Activator records a verified payment in the authoritative entitlement
// store. *entitlements.Store satisfies it.
type Activator interface {
	Activate(ctx context.Context, userID, planID, paymentID string) error
}

// InvoiceEnqueuer queues the post-payment invoice email. Best-effort: an
// enqueue failure never fails the verification.
type InvoiceEnqueuer interface {
	EnqueueInvoice(ctx context.Context, userID, planID, paymentID string) error
}

// VerificationRequest carries the fields the gateway hands the buyer's
// browser after checkout completes.
type VerificationRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	UserID    string
	PlanID    string
}

// Service verifies completed payments and activates entitlements.
type Service struct {
	secret   string
	store    Activator
	invoices InvoiceEnqueuer
	log      *logrus.Logger
}

func NewService(secret string, store Activator, invoices InvoiceEnqueuer, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{secret: secret, store: store, invoices: invoices, log: log}
}

// ValidateOrder checks the order-creation preconditions.
func ValidateOrder(amount int64, planID string) error {
	if amount <= 0 {
		return ErrInvalidArgument
	}
	if strings.TrimSpace(planID) == "" {
		return ErrInvalidArgument
	}
	return nil
}

// Verify recomputes the payment signature and, on match, activates (or
// extends) the user's entitlement. The store write is a single conditional
// upsert, so repeated or racing verifications for the same user settle on
// one active record. On any failure the store is left unchanged.
func (s *Service) Verify(ctx context.Context, req VerificationRequest) error {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" || req.UserID == "" || req.PlanID == "" {
		return ErrMissingFields
	}
	if !VerifySignature(s.secret, req.OrderID, req.PaymentID, req.Signature) {
		s.log.WithFields(logrus.Fields{
			"order_id": req.OrderID,
			"user_id":  req.UserID,
		}).Warn("payment signature mismatch")
		return ErrSignatureMismatch
	}
	if err := s.store.Activate(ctx, req.UserID, req.PlanID, req.PaymentID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id": req.UserID,
		"plan_id": req.PlanID,
	}).Info("entitlement activated")

	if s.invoices != nil {
		if err := s.invoices.EnqueueInvoice(ctx, req.UserID, req.PlanID, req.PaymentID); err != nil {
			s.log.WithError(err).WithField("user_id", req.UserID).Warn("invoice enqueue failed")
		}
	}
	return nil
}
