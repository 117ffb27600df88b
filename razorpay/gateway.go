// Package razorpay drives the card gateway checkout: a server-side order, the
// checkout.js modal, and backend verification of the payment signature.
package razorpay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kamalnath14061995/IndusionCricket-sub001/backend"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/helpers"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	Provider  = "razorpay"
	ScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

	defaultOpenTimeout = 10 * time.Minute
)

// Backend is the part of *backend.Client the adapter needs.
type Backend interface {
	CreateRazorpayOrder(ctx context.Context, req *backend.RazorpayOrderRequest) (*backend.RazorpayOrder, error)
	VerifyRazorpayPayment(ctx context.Context, req *backend.RazorpayVerifyRequest) (*backend.RazorpayVerifyResponse, error)
}

type Options struct {
	KeyID          string
	MerchantName   string
	ScriptURL      string
	SDKLoadTimeout time.Duration
	OpenTimeout    time.Duration
	HTTP           *http.Client
}

type Gateway struct {
	opts     Options
	backend  Backend
	sessions *checkout.Registry
	launcher checkout.Launcher
	loader   *checkout.ScriptLoader
	logger   *log.Entry
}

func New(opts Options, b Backend, sessions *checkout.Registry, launcher checkout.Launcher) *Gateway {
	if opts.ScriptURL == "" {
		opts.ScriptURL = ScriptURL
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	if opts.MerchantName == "" {
		opts.MerchantName = "Cricket Academy"
	}
	return &Gateway{
		opts:     opts,
		backend:  b,
		sessions: sessions,
		launcher: launcher,
		loader:   checkout.NewScriptLoader(opts.ScriptURL, opts.HTTP, opts.SDKLoadTimeout),
		logger:   log.WithField("gateway", Provider),
	}
}

func (g *Gateway) Name() string {
	return Provider
}

func (g *Gateway) EnsureLoaded(ctx context.Context) error {
	return g.loader.EnsureLoaded(ctx)
}

// CreateOrder creates the order on the backend. The amount sent is already
// in paise; the amount returned is the one checkout will charge.
func (g *Gateway) CreateOrder(ctx context.Context, req *checkout.OrderRequest) (*checkout.Order, error) {
	order, err := g.backend.CreateRazorpayOrder(ctx, &backend.RazorpayOrderRequest{
		Amount:     req.MinorAmount,
		Currency:   req.Currency,
		Receipt:    req.Receipt,
		BookingID:  req.BookingID,
		CoachingID: req.CoachingID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed creating razorpay order")
	}

	keyID := order.KeyID
	if keyID == "" {
		keyID = g.opts.KeyID
	}
	currency := order.Currency
	if currency == "" {
		currency = req.Currency
	}
	amount, err := helpers.FromMinor(order.Amount, currency)
	if err != nil {
		return nil, errors.Wrap(err, "razorpay order with unusable currency")
	}
	return &checkout.Order{
		ID:          order.OrderID,
		Amount:      amount,
		MinorAmount: order.Amount,
		Currency:    currency,
		KeyID:       keyID,
	}, nil
}

// Open shows the checkout modal and resolves to exactly one outcome:
// verified success, gateway failure, or cancellation. Only a failure to show
// the page or a cancelled ctx is returned as an error.
func (g *Gateway) Open(ctx context.Context, order *checkout.Order, customer *checkout.Customer) (*models.PaymentOutcome, error) {
	if customer == nil {
		customer = &checkout.Customer{}
	}
	session, err := g.sessions.Open(Provider, order.ID, func(callbackURL string) ([]byte, error) {
		return renderPage(&pageData{
			ScriptURL:   g.opts.ScriptURL,
			CallbackURL: callbackURL,
			KeyID:       order.KeyID,
			Amount:      order.MinorAmount,
			Currency:    order.Currency,
			OrderID:     order.ID,
			Name:        g.opts.MerchantName,
			Description: customer.Description,
			Email:       customer.Email,
		})
	})
	if err != nil {
		return nil, err
	}
	defer g.sessions.Close(session.ID)

	logger := g.logger.WithFields(log.Fields{"order_id": order.ID, "session_id": session.ID})

	if err := g.launcher.Open(g.sessions.PageURL(session)); err != nil {
		return nil, errors.Wrap(err, "failed showing razorpay checkout")
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.opts.OpenTimeout)
	defer cancel()
	cb, err := session.Wait(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("checkout timed out")
		return outcome(order, models.Failed(models.ErrCodeTimeout, "Checkout was not completed in time")), nil
	}

	switch cb.Kind {
	case checkout.KindDismissed:
		logger.Info("checkout dismissed")
		return outcome(order, models.CancelledOutcome("Payment was cancelled")), nil
	case checkout.KindFailed:
		logger.WithFields(log.Fields{"code": cb.Code, "message": cb.Message}).Warn("gateway reported failure")
		failed := models.Failed(models.ErrCodeGateway, gatewayMessage(cb))
		failed.GatewayCode = cb.Code
		return outcome(order, failed), nil
	case checkout.KindComplete:
		return g.verify(ctx, logger, order, cb), nil
	}
	return outcome(order, models.Failed(models.ErrCodeGateway, fmt.Sprintf("unexpected checkout event %q", cb.Kind))), nil
}

// verify never trusts the page: the backend checks the signature.
func (g *Gateway) verify(ctx context.Context, logger *log.Entry, order *checkout.Order, cb checkout.Callback) *models.PaymentOutcome {
	if cb.OrderID != order.ID {
		logger.WithField("reported_order_id", cb.OrderID).Error("checkout reported a different order")
		return outcome(order, models.Failed(models.ErrCodeVerificationFailed, "Payment does not match the order"))
	}

	verified, err := g.backend.VerifyRazorpayPayment(ctx, &backend.RazorpayVerifyRequest{
		OrderID:   order.ID,
		PaymentID: cb.PaymentID,
		Signature: cb.Signature,
	})
	if err != nil && backend.IsTransient(err) {
		logger.WithField("payment_id", cb.PaymentID).WithError(err).Error("payment verification unreachable")
		unverified := models.Failed(models.ErrCodeVerificationFailed, "We could not confirm your payment yet. Please contact support before paying again.")
		unverified.TransactionID = cb.PaymentID
		unverified.RequiresManualReview = true
		return outcome(order, unverified)
	}
	if err != nil && backend.IsUnauthorized(err) {
		logger.WithField("payment_id", cb.PaymentID).WithError(err).Error("session expired before verification")
		expired := models.Failed(models.ErrCodeSessionExpired, "Your payment may have been taken but your session expired before it was confirmed. Please log in again and contact support. Do not pay again.")
		expired.TransactionID = cb.PaymentID
		expired.RequiresManualReview = true
		return outcome(order, expired)
	}
	if err != nil || !verified.Verified {
		logger.WithField("payment_id", cb.PaymentID).WithError(err).Error("payment verification rejected")
		rejected := models.Failed(models.ErrCodeVerificationFailed, "Payment could not be verified")
		rejected.TransactionID = cb.PaymentID
		return outcome(order, rejected)
	}

	paymentID := cb.PaymentID
	if verified.PaymentID != "" {
		paymentID = verified.PaymentID
	}
	logger.WithField("payment_id", paymentID).Info("payment verified")
	return outcome(order, &models.PaymentOutcome{
		Success:       true,
		TransactionID: paymentID,
		Message:       "Payment successful",
	})
}

func outcome(order *checkout.Order, o *models.PaymentOutcome) *models.PaymentOutcome {
	o.OrderID = order.ID
	o.Amount = order.Amount
	o.Currency = order.Currency
	return o
}

func gatewayMessage(cb checkout.Callback) string {
	if cb.Message != "" {
		return cb.Message
	}
	return "Payment failed at the gateway"
}
