// Package invoices queues the post-payment invoice email. Delivery runs
// out of band so a slow or failing email provider never holds up payment
// verification.
package invoices

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"
)

// Args is the queued invoice job payload.
type Args struct {
	UserID    string `json:"user_id"`
	PlanID    string `json:"plan_id"`
	PaymentID string `json:"payment_id"`
}

func (Args) Kind() string { return "invoice_email" }

// Mailer dispatches the invoice through the transactional email provider.
type Mailer interface {
	SendInvoice(ctx context.Context, userID, planID, paymentID string) error
}

// Worker renders and sends the invoice email for a verified payment.
type Worker struct {
	river.WorkerDefaults[Args]
	mailer Mailer
	log    *logrus.Logger
}

func NewWorker(mailer Mailer, log *logrus.Logger) *Worker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Worker{mailer: mailer, log: log}
}

func (w *Worker) Work(ctx context.Context, job *river.Job[Args]) error {
	if w.mailer == nil {
		w.log.WithField("user_id", job.Args.UserID).Warn("no mailer configured, dropping invoice")
		return nil
	}
	if err := w.mailer.SendInvoice(ctx, job.Args.UserID, job.Args.PlanID, job.Args.PaymentID); err != nil {
		// River retries with backoff; the mailer must tolerate resends.
		return err
	}
	w.log.WithFields(logrus.Fields{
		"user_id":    job.Args.UserID,
		"payment_id": job.Args.PaymentID,
	}).Info("invoice sent")
	return nil
}

// Enqueuer inserts invoice jobs; it satisfies payments.InvoiceEnqueuer.
type Enqueuer struct {
	client *river.Client[pgx.Tx]
}

func NewEnqueuer(client *river.Client[pgx.Tx]) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueInvoice(ctx context.Context, userID, planID, paymentID string) error {
	_, err := e.client.Insert(ctx, Args{UserID: userID, PlanID: planID, PaymentID: paymentID}, nil)
	return err
}
