// Package payment turns a PaymentRequest into exactly one PaymentOutcome:
// cash is settled offline, card and wallet payments go through their gateway
// and are then recorded against the booking or coaching on the backend.
//
// The orchestrator keeps no state between calls. Callers must not start a
// second Pay for the same booking or coaching while one is in flight.
package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kamalnath14061995/IndusionCricket-sub001/backend"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/helpers"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/lithammer/shortuuid/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultCashInstructions = "Pay the amount in cash at the academy front desk and quote the reference."

// Gateway is implemented by *razorpay.Gateway and *paypal.Gateway.
type Gateway interface {
	Name() string
	EnsureLoaded(ctx context.Context) error
	CreateOrder(ctx context.Context, req *checkout.OrderRequest) (*checkout.Order, error)
	Open(ctx context.Context, order *checkout.Order, customer *checkout.Customer) (*models.PaymentOutcome, error)
}

// Recorder is the backend ledger.
type Recorder interface {
	ProcessPayment(ctx context.Context, req *backend.ProcessRequest) (*backend.ProcessResponse, error)
}

// Journal is where captures the ledger could not take are kept.
type Journal interface {
	InsertUnrecorded(entry *models.JournalEntry) (*models.JournalEntry, error)
	GetUnrecorded(id string) (*models.JournalEntry, error)
	MarkRecorded(id string) error
	MarkAttempt(id string, lastError string) error
}

// Alerter tells support about a capture that needs a human.
type Alerter interface {
	CaptureUnrecorded(entry *models.JournalEntry) error
}

type Options struct {
	DefaultCurrency  string
	ReconcileRetries int
	RetryDelay       time.Duration
	// RecordOffline also sends cash payments to the ledger.
	RecordOffline    bool
	CashInstructions string
}

type Orchestrator struct {
	opts     Options
	recorder Recorder
	journal  Journal
	alerter  Alerter
	gateways map[models.MethodKey]Gateway
	logger   *log.Entry
}

// New builds an orchestrator. journal and alerter may be nil.
func New(opts Options, recorder Recorder, journal Journal, alerter Alerter, gateways map[models.MethodKey]Gateway) *Orchestrator {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "INR"
	}
	if opts.ReconcileRetries < 0 {
		opts.ReconcileRetries = 0
	}
	if opts.CashInstructions == "" {
		opts.CashInstructions = DefaultCashInstructions
	}
	return &Orchestrator{
		opts:     opts,
		recorder: recorder,
		journal:  journal,
		alerter:  alerter,
		gateways: gateways,
		logger:   log.WithField("component", "payment"),
	}
}

// Pay resolves to one outcome for every expected failure. An error is
// returned only for transport failures and a cancelled ctx.
func (o *Orchestrator) Pay(ctx context.Context, req models.PaymentRequest) (*models.PaymentOutcome, error) {
	if req.Currency == "" {
		req.Currency = o.opts.DefaultCurrency
	}
	if err := req.Validate(); err != nil {
		return o.finish(&req, models.Failed(models.ErrCodeValidation, err.Error())), nil
	}

	logger := o.logger.WithFields(log.Fields{
		"method":   req.Method,
		"subject":  req.Subject(),
		"amount":   req.Amount.String(),
		"currency": req.Currency,
	})

	descriptor, _ := models.LookupMethod(req.Method)
	if descriptor.Type == models.MethodTypeOffline {
		return o.payOffline(ctx, logger, &req)
	}

	gateway, ok := o.gateways[req.Method]
	if !ok {
		logger.Error("no gateway configured")
		return o.finish(&req, models.Failed(models.ErrCodeMethodNotAllowed, descriptor.Label+" is not available")), nil
	}
	return o.payOnline(ctx, logger.WithField("gateway", gateway.Name()), gateway, &req)
}

func (o *Orchestrator) payOffline(ctx context.Context, logger *log.Entry, req *models.PaymentRequest) (*models.PaymentOutcome, error) {
	reference := "CASH-" + shortuuid.New()[:10]
	out := &models.PaymentOutcome{
		Success:      true,
		Message:      "Cash payment registered. Settle it at the academy.",
		Reference:    reference,
		Instructions: o.opts.CashInstructions,
	}

	if o.opts.RecordOffline {
		if _, err := o.recorder.ProcessPayment(ctx, processRequest(req, "", "")); err != nil {
			if backend.IsUnauthorized(err) {
				return o.finish(req, sessionExpired()), nil
			}
			logger.WithError(err).Warn("failed recording cash payment, left to manual reconciliation")
		}
	}

	logger.WithField("reference", reference).Info("cash payment registered")
	return o.finish(req, out), nil
}

func (o *Orchestrator) payOnline(ctx context.Context, logger *log.Entry, gateway Gateway, req *models.PaymentRequest) (*models.PaymentOutcome, error) {
	if err := gateway.EnsureLoaded(ctx); err != nil {
		var loadErr *checkout.LoadError
		if errors.As(err, &loadErr) {
			logger.WithError(err).Error("gateway sdk unavailable")
			return o.finish(req, models.Failed(loadErr.Code, "The payment gateway could not be loaded. Please try again.")), nil
		}
		return nil, err
	}

	minor, err := helpers.ToMinor(req.Amount, req.Currency)
	if err != nil {
		return o.finish(req, models.Failed(models.ErrCodeValidation, err.Error())), nil
	}

	order, err := gateway.CreateOrder(ctx, &checkout.OrderRequest{
		Amount:      req.Amount,
		MinorAmount: minor,
		Currency:    req.Currency,
		BookingID:   req.BookingID,
		CoachingID:  req.CoachingID,
		Receipt:     req.Subject(),
	})
	if err != nil {
		switch {
		case backend.IsUnauthorized(err):
			return o.finish(req, sessionExpired()), nil
		case isAPIError(err):
			logger.WithError(err).Error("order creation refused")
			return o.finish(req, models.Failed(models.ErrCodeOrderFailed, "The payment could not be started. Please try again.")), nil
		}
		return nil, err
	}
	logger = logger.WithField("order_id", order.ID)

	out, err := gateway.Open(ctx, order, &checkout.Customer{Email: req.UserEmail, Description: req.Subject()})
	if err != nil {
		return nil, err
	}
	out.Method = req.Method

	if !out.Success {
		if out.RequiresManualReview {
			o.escalate(logger, req, out, out.Message)
		}
		logger.WithField("error_code", out.ErrorCode).Info("checkout ended without payment")
		return out, nil
	}

	return o.reconcile(ctx, logger.WithField("transaction_id", out.TransactionID), req, out), nil
}

// reconcile records a captured payment. It repeats only transient failures,
// always under the same idempotency key, and never reopens the gateway.
func (o *Orchestrator) reconcile(ctx context.Context, logger *log.Entry, req *models.PaymentRequest, captured *models.PaymentOutcome) *models.PaymentOutcome {
	process := processRequest(req, captured.TransactionID, captured.OrderID)

	var err error
	for attempt := 0; attempt <= o.opts.ReconcileRetries; attempt++ {
		if attempt > 0 {
			logger.WithFields(log.Fields{"attempt": attempt + 1}).WithError(err).Warn("retrying payment recording")
			if !sleep(ctx, o.opts.RetryDelay) {
				break
			}
		}

		var recorded *backend.ProcessResponse
		recorded, err = o.recorder.ProcessPayment(ctx, process)
		if err == nil {
			logger.WithField("payment_id", recorded.PaymentID).Info("payment recorded")
			captured.Reference = recorded.PaymentID
			if captured.Message == "" {
				captured.Message = "Payment successful"
			}
			return captured
		}
		if !backend.IsTransient(err) || ctx.Err() != nil {
			break
		}
	}

	logger.WithError(err).Error("payment captured but not recorded")
	out := *captured
	out.Success = false
	out.RequiresManualReview = true
	out.ErrorCode = models.ErrCodeRecordingFailed
	out.Message = "Your payment was received but we could not record it. Please contact support with the transaction id. Do not pay again."
	if backend.IsUnauthorized(err) {
		out.ErrorCode = models.ErrCodeSessionExpired
		out.Message = "Your payment was received but your session expired before it was recorded. Please log in again and contact support. Do not pay again."
	}
	o.escalate(logger, req, &out, errorText(err))
	return &out
}

// escalate journals the capture and alerts support. Neither may change the
// outcome already decided.
func (o *Orchestrator) escalate(logger *log.Entry, req *models.PaymentRequest, out *models.PaymentOutcome, reason string) {
	entry := &models.JournalEntry{
		TransactionID: out.TransactionID,
		OrderID:       out.OrderID,
		Method:        req.Method,
		Amount:        req.Amount,
		Currency:      req.Currency,
		BookingID:     req.BookingID,
		CoachingID:    req.CoachingID,
		Email:         req.UserEmail,
		LastError:     reason,
	}

	if o.journal != nil {
		stored, err := o.journal.InsertUnrecorded(entry)
		if err != nil {
			logger.WithError(err).Error("failed journaling unrecorded payment")
		} else {
			entry = stored
			out.Reference = stored.ID
		}
	}
	if o.alerter != nil {
		if err := o.alerter.CaptureUnrecorded(entry); err != nil {
			logger.WithError(err).Error("failed alerting support")
		}
	}
}

// RetryRecording replays a journaled capture against the ledger under its
// original idempotency key.
func (o *Orchestrator) RetryRecording(ctx context.Context, journalID string) (*models.PaymentOutcome, error) {
	if o.journal == nil {
		return nil, errors.New("no payment journal configured")
	}
	entry, err := o.journal.GetUnrecorded(journalID)
	if err != nil {
		return nil, err
	}
	if entry.Recorded != nil {
		return nil, errors.Errorf("journal entry %s already recorded", journalID)
	}
	if entry.TransactionID == "" {
		return nil, errors.Errorf("journal entry %s has no confirmed capture, check order %s with the gateway", journalID, entry.OrderID)
	}

	logger := o.logger.WithFields(log.Fields{"journal_id": entry.ID, "transaction_id": entry.TransactionID})
	req := &models.PaymentRequest{
		Amount:     entry.Amount,
		Currency:   entry.Currency,
		Method:     entry.Method,
		BookingID:  entry.BookingID,
		CoachingID: entry.CoachingID,
		UserEmail:  entry.Email,
	}

	recorded, err := o.recorder.ProcessPayment(ctx, processRequest(req, entry.TransactionID, entry.OrderID))
	if err != nil {
		if markErr := o.journal.MarkAttempt(entry.ID, err.Error()); markErr != nil {
			logger.WithError(markErr).Error("failed updating journal entry")
		}
		if backend.IsUnauthorized(err) {
			return nil, errors.Wrap(err, "session expired, log in again")
		}
		return nil, errors.Wrapf(err, "failed recording transaction %s", entry.TransactionID)
	}

	if err := o.journal.MarkRecorded(entry.ID); err != nil {
		return nil, err
	}
	logger.WithField("payment_id", recorded.PaymentID).Info("journaled payment recorded")
	return &models.PaymentOutcome{
		Success:       true,
		Method:        entry.Method,
		Amount:        entry.Amount,
		Currency:      entry.Currency,
		TransactionID: entry.TransactionID,
		OrderID:       entry.OrderID,
		Reference:     recorded.PaymentID,
		Message:       "Payment recorded",
	}, nil
}

func (o *Orchestrator) finish(req *models.PaymentRequest, out *models.PaymentOutcome) *models.PaymentOutcome {
	out.Method = req.Method
	if out.Amount.IsZero() {
		out.Amount = req.Amount
	}
	if out.Currency == "" {
		out.Currency = req.Currency
	}
	return out
}

func processRequest(req *models.PaymentRequest, transactionID, orderID string) *backend.ProcessRequest {
	return &backend.ProcessRequest{
		Amount:        json.Number(req.Amount.String()),
		Currency:      req.Currency,
		Method:        req.Method,
		BookingID:     req.BookingID,
		CoachingID:    req.CoachingID,
		Email:         req.UserEmail,
		TransactionID: transactionID,
		OrderID:       orderID,
	}
}

func sessionExpired() *models.PaymentOutcome {
	return models.Failed(models.ErrCodeSessionExpired, "Your session has expired. Please log in again.")
}

func isAPIError(err error) bool {
	_, ok := errors.Cause(err).(*backend.APIError)
	return ok
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
