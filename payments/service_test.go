package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

// fakeStore mimics the conditional-upsert semantics of the real store: one
// active record per user, updated in place.
type fakeStore struct {
	active map[string]struct{ planID, paymentID string }
	writes int
	fail   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{active: make(map[string]struct{ planID, paymentID string })}
}

func (f *fakeStore) Activate(ctx context.Context, userID, planID, paymentID string) error {
	if f.fail != nil {
		return f.fail
	}
	f.writes++
	f.active[userID] = struct{ planID, paymentID string }{planID, paymentID}
	return nil
}

type fakeInvoices struct {
	enqueued int
	fail     error
}

func (f *fakeInvoices) EnqueueInvoice(ctx context.Context, userID, planID, paymentID string) error {
	if f.fail != nil {
		return f.fail
	}
	f.enqueued++
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestVerifyActivatesEntitlement(t *testing.T) {
	store := newFakeStore()
	inv := &fakeInvoices{}
	svc := NewService("secret", store, inv, quietLogger())

	req := VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Sign("secret", "order_1", "pay_1"),
		UserID:    "user-1",
		PlanID:    "premium",
	}
	if err := svc.Verify(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	got, ok := store.active["user-1"]
	if !ok || got.planID != "premium" || got.paymentID != "pay_1" {
		t.Fatalf("entitlement not activated: %+v", store.active)
	}
	if inv.enqueued != 1 {
		t.Fatalf("expected one invoice enqueued, got %d", inv.enqueued)
	}
}

// Two successful payments for the same user leave exactly one active record.
func TestRepeatVerificationIsIdempotentActivation(t *testing.T) {
	store := newFakeStore()
	svc := NewService("secret", store, nil, quietLogger())

	for _, p := range []struct{ order, payment, plan string }{
		{"order_1", "pay_1", "premium"},
		{"order_2", "pay_2", "team"},
	} {
		req := VerificationRequest{
			OrderID:   p.order,
			PaymentID: p.payment,
			Signature: Sign("secret", p.order, p.payment),
			UserID:    "user-1",
			PlanID:    p.plan,
		}
		if err := svc.Verify(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if len(store.active) != 1 {
		t.Fatalf("expected exactly one active record, got %d", len(store.active))
	}
	got := store.active["user-1"]
	if got.planID != "team" || got.paymentID != "pay_2" {
		t.Fatalf("record not updated in place: %+v", got)
	}
}

func TestVerifyTamperedSignatureLeavesStoreUntouched(t *testing.T) {
	store := newFakeStore()
	svc := NewService("secret", store, nil, quietLogger())

	req := VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Sign("secret", "order_1", "pay_TAMPERED"),
		UserID:    "user-1",
		PlanID:    "premium",
	}
	err := svc.Verify(context.Background(), req)
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("store written despite rejected signature (%d writes)", store.writes)
	}
}

func TestVerifyMissingFields(t *testing.T) {
	svc := NewService("secret", newFakeStore(), nil, quietLogger())
	cases := []VerificationRequest{
		{},
		{OrderID: "o", PaymentID: "p", Signature: "s", UserID: "u"},
		{OrderID: "o", PaymentID: "p", Signature: "s", PlanID: "premium"},
		{PaymentID: "p", Signature: "s", UserID: "u", PlanID: "premium"},
	}
	for i, req := range cases {
		if err := svc.Verify(context.Background(), req); !errors.Is(err, ErrMissingFields) {
			t.Errorf("case %d: expected missing-fields error, got %v", i, err)
		}
	}
}

func TestVerifyStoreFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	store.fail = errors.New("pg down")
	svc := NewService("secret", store, nil, quietLogger())

	req := VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Sign("secret", "order_1", "pay_1"),
		UserID:    "user-1",
		PlanID:    "premium",
	}
	if err := svc.Verify(context.Background(), req); err == nil || errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected upstream failure to surface, got %v", err)
	}
}

// Invoice enqueue failures are logged, never surfaced to the payer.
func TestInvoiceFailureDoesNotFailVerification(t *testing.T) {
	store := newFakeStore()
	inv := &fakeInvoices{fail: errors.New("queue down")}
	svc := NewService("secret", store, inv, quietLogger())

	req := VerificationRequest{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: Sign("secret", "order_1", "pay_1"),
		UserID:    "user-1",
		PlanID:    "premium",
	}
	if err := svc.Verify(context.Background(), req); err != nil {
		t.Fatalf("verification failed on invoice error: %v", err)
	}
	if _, ok := store.active["user-1"]; !ok {
		t.Fatal("entitlement not activated")
	}
}

func TestValidateOrder(t *testing.T) {
	if err := ValidateOrder(59900, "premium"); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}
	for _, tc := range []struct {
		amount int64
		plan   string
	}{
		{0, "premium"},
		{-100, "premium"},
		{59900, ""},
		{59900, "   "},
	} {
		if err := ValidateOrder(tc.amount, tc.plan); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidateOrder(%d, %q) = %v, want invalid argument", tc.amount, tc.plan, err)
		}
	}
}
