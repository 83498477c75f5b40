package invoices

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"
)

type fakeMailer struct {
	sent []Args
	fail error
}

func (f *fakeMailer) SendInvoice(ctx context.Context, userID, planID, paymentID string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, Args{UserID: userID, PlanID: planID, PaymentID: paymentID})
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestWorkSendsInvoice(t *testing.T) {
	m := &fakeMailer{}
	w := NewWorker(m, quietLogger())

	job := &river.Job[Args]{Args: Args{UserID: "user-1", PlanID: "premium", PaymentID: "pay_1"}}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 1 || m.sent[0].PaymentID != "pay_1" {
		t.Fatalf("invoice not sent: %+v", m.sent)
	}
}

// Mailer failures bubble up so river retries the job.
func TestWorkReturnsMailerError(t *testing.T) {
	m := &fakeMailer{fail: errors.New("smtp down")}
	w := NewWorker(m, quietLogger())

	job := &river.Job[Args]{Args: Args{UserID: "user-1", PlanID: "premium", PaymentID: "pay_1"}}
	if err := w.Work(context.Background(), job); err == nil {
		t.Fatal("expected mailer error to surface for retry")
	}
}

func TestWorkWithoutMailerDropsQuietly(t *testing.T) {
	w := NewWorker(nil, quietLogger())
	job := &river.Job[Args]{Args: Args{UserID: "user-1"}}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("missing mailer should not fail the job: %v", err)
	}
}
