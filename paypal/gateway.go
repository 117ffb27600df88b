// Package paypal drives the wallet gateway checkout: order creation and
// capture are separate backend round trips around the PayPal Buttons flow.
package paypal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kamalnath14061995/IndusionCricket-sub001/backend"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/helpers"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	Provider = "paypal"
	SDKURL   = "https://www.paypal.com/sdk/js"

	ReturnPath = "/checkout/paypal/return"
	CancelPath = "/checkout/paypal/cancel"

	defaultOpenTimeout = 10 * time.Minute
)

// Backend is the part of *backend.Client the adapter needs.
type Backend interface {
	CreatePayPalOrder(ctx context.Context, req *backend.PayPalOrderRequest) (*backend.PayPalOrder, error)
	CapturePayPalOrder(ctx context.Context, orderID string) (*backend.PayPalCapture, error)
}

type Options struct {
	ClientID       string
	Currency       string
	MerchantName   string
	SDKURL         string
	SDKLoadTimeout time.Duration
	OpenTimeout    time.Duration
	HTTP           *http.Client
}

type Gateway struct {
	opts      Options
	scriptURL string
	backend   Backend
	sessions  *checkout.Registry
	launcher  checkout.Launcher
	loader    *checkout.ScriptLoader
	logger    *log.Entry
}

func New(opts Options, b Backend, sessions *checkout.Registry, launcher checkout.Launcher) *Gateway {
	if opts.SDKURL == "" {
		opts.SDKURL = SDKURL
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	if opts.MerchantName == "" {
		opts.MerchantName = "Cricket Academy"
	}
	scriptURL := ScriptURL(opts.SDKURL, opts.ClientID, opts.Currency)
	return &Gateway{
		opts:      opts,
		scriptURL: scriptURL,
		backend:   b,
		sessions:  sessions,
		launcher:  launcher,
		loader:    checkout.NewScriptLoader(scriptURL, opts.HTTP, opts.SDKLoadTimeout),
		logger:    log.WithField("gateway", Provider),
	}
}

// ScriptURL is the SDK URL for a client id, e.g.
// https://www.paypal.com/sdk/js?client-id=abc&currency=USD.
func ScriptURL(base, clientID, currency string) string {
	q := url.Values{}
	q.Set("client-id", clientID)
	q.Set("currency", currency)
	return base + "?" + q.Encode()
}

func (g *Gateway) Name() string {
	return Provider
}

func (g *Gateway) EnsureLoaded(ctx context.Context) error {
	return g.loader.EnsureLoaded(ctx)
}

func (g *Gateway) CreateOrder(ctx context.Context, req *checkout.OrderRequest) (*checkout.Order, error) {
	amount, err := helpers.FormatAmount(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	order, err := g.backend.CreatePayPalOrder(ctx, &backend.PayPalOrderRequest{
		Amount:     amount,
		Currency:   req.Currency,
		BookingID:  req.BookingID,
		CoachingID: req.CoachingID,
		ReturnURL:  g.sessions.BaseURL() + ReturnPath,
		CancelURL:  g.sessions.BaseURL() + CancelPath,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed creating paypal order")
	}

	charged := req.Amount
	if order.Amount != "" {
		if charged, err = decimal.NewFromString(order.Amount); err != nil {
			return nil, errors.Wrapf(err, "paypal order %s with bad amount", order.OrderID)
		}
	}
	currency := order.Currency
	if currency == "" {
		currency = req.Currency
	}
	return &checkout.Order{
		ID:          order.OrderID,
		Amount:      charged,
		MinorAmount: req.MinorAmount,
		Currency:    currency,
		ApproveURL:  order.ApproveURL,
	}, nil
}

// Open renders the PayPal Buttons page, or the approve link the backend
// returned when there is one, and resolves to exactly one outcome. Only a
// failure to show the page or a cancelled ctx is returned as an error.
func (g *Gateway) Open(ctx context.Context, order *checkout.Order, customer *checkout.Customer) (*models.PaymentOutcome, error) {
	if customer == nil {
		customer = &checkout.Customer{}
	}
	session, err := g.sessions.Open(Provider, order.ID, func(callbackURL string) ([]byte, error) {
		return renderPage(&pageData{
			ScriptURL:   g.scriptURL,
			CallbackURL: callbackURL,
			OrderID:     order.ID,
			Amount:      order.Amount.String(),
			Currency:    order.Currency,
			Name:        g.opts.MerchantName,
			Description: customer.Description,
		})
	})
	if err != nil {
		return nil, err
	}
	defer g.sessions.Close(session.ID)

	logger := g.logger.WithFields(log.Fields{"order_id": order.ID, "session_id": session.ID})

	target := g.sessions.PageURL(session)
	if order.ApproveURL != "" {
		target = order.ApproveURL
	}
	if err := g.launcher.Open(target); err != nil {
		return nil, errors.Wrap(err, "failed showing paypal checkout")
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
		logger.Info("checkout cancelled by payer")
		return outcome(order, models.CancelledOutcome("Payment was cancelled")), nil
	case checkout.KindFailed:
		logger.WithFields(log.Fields{"code": cb.Code, "message": cb.Message}).Warn("gateway reported failure")
		failed := models.Failed(models.ErrCodeGateway, gatewayMessage(cb))
		failed.GatewayCode = cb.Code
		return outcome(order, failed), nil
	case checkout.KindApproved:
		return g.capture(ctx, logger, order, cb), nil
	}
	return outcome(order, models.Failed(models.ErrCodeGateway, fmt.Sprintf("unexpected checkout event %q", cb.Kind))), nil
}

// capture resolves every failure to an outcome.
func (g *Gateway) capture(ctx context.Context, logger *log.Entry, order *checkout.Order, cb checkout.Callback) *models.PaymentOutcome {
	if cb.OrderID != "" && cb.OrderID != order.ID {
		logger.WithField("reported_order_id", cb.OrderID).Error("approval for a different order")
		return outcome(order, models.Failed(models.ErrCodeCaptureFailed, "Approval does not match the order"))
	}

	captured, err := g.backend.CapturePayPalOrder(ctx, order.ID)
	if err != nil {
		logger.WithField("payer_id", cb.PayerID).WithError(err).Error("capture failed")
		if backend.IsUnauthorized(err) {
			return outcome(order, models.Failed(models.ErrCodeSessionExpired, "Your session has expired before the payment was captured. Please log in again."))
		}
		failed := models.Failed(models.ErrCodeCaptureFailed, "Payment could not be captured")
		if backend.IsTransient(err) {
			failed.Message = "We could not confirm your payment yet. Please contact support before paying again."
			failed.RequiresManualReview = true
		}
		return outcome(order, failed)
	}

	logger.WithFields(log.Fields{"capture_id": captured.CaptureID, "status": captured.Status}).Info("payment captured")
	return outcome(order, &models.PaymentOutcome{
		Success:       true,
		TransactionID: captured.CaptureID,
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
