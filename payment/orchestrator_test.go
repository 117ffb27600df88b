package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/kamalnath14061995/IndusionCricket-sub001/backend"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	loadErr  error
	orderErr error
	outcome  *models.PaymentOutcome

	loads    int
	orders   []*checkout.OrderRequest
	openings int
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) EnsureLoaded(context.Context) error {
	g.loads++
	return g.loadErr
}

func (g *fakeGateway) CreateOrder(_ context.Context, req *checkout.OrderRequest) (*checkout.Order, error) {
	g.orders = append(g.orders, req)
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return &checkout.Order{ID: "order_1", Amount: req.Amount, MinorAmount: req.MinorAmount, Currency: req.Currency}, nil
}

func (g *fakeGateway) Open(context.Context, *checkout.Order, *checkout.Customer) (*models.PaymentOutcome, error) {
	g.openings++
	out := *g.outcome
	return &out, nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	errs  []error
	calls []*backend.ProcessRequest
}

func (r *fakeRecorder) ProcessPayment(_ context.Context, req *backend.ProcessRequest) (*backend.ProcessResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &backend.ProcessResponse{PaymentID: "P-1", Status: "RECORDED"}, nil
}

type memJournal struct {
	entries map[string]*models.JournalEntry
}

func newMemJournal() *memJournal {
	return &memJournal{entries: make(map[string]*models.JournalEntry)}
}

func (j *memJournal) InsertUnrecorded(entry *models.JournalEntry) (*models.JournalEntry, error) {
	stored := *entry
	stored.ID = "J-" + entry.Key()
	stored.Attempts = 1
	j.entries[stored.ID] = &stored
	return &stored, nil
}

func (j *memJournal) GetUnrecorded(id string) (*models.JournalEntry, error) {
	e, ok := j.entries[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *e
	return &copied, nil
}

func (j *memJournal) MarkRecorded(id string) error {
	e, ok := j.entries[id]
	if !ok {
		return errors.New("not found")
	}
	now := e.Created
	e.Recorded = &now
	return nil
}

func (j *memJournal) MarkAttempt(id string, lastError string) error {
	e := j.entries[id]
	e.Attempts++
	e.LastError = lastError
	return nil
}

type fakeAlerter struct {
	alerts []*models.JournalEntry
}

func (a *fakeAlerter) CaptureUnrecorded(entry *models.JournalEntry) error {
	a.alerts = append(a.alerts, entry)
	return nil
}

type fixture struct {
	gateway  *fakeGateway
	recorder *fakeRecorder
	journal  *memJournal
	alerter  *fakeAlerter
	o        *Orchestrator
}

func newFixture(opts Options, outcome *models.PaymentOutcome) *fixture {
	f := &fixture{
		gateway:  &fakeGateway{outcome: outcome},
		recorder: &fakeRecorder{},
		journal:  newMemJournal(),
		alerter:  &fakeAlerter{},
	}
	f.o = New(opts, f.recorder, f.journal, f.alerter, map[models.MethodKey]Gateway{
		models.MethodRazorpay: f.gateway,
		models.MethodPayPal:   f.gateway,
	})
	return f
}

func captured(transactionID string) *models.PaymentOutcome {
	return &models.PaymentOutcome{Success: true, TransactionID: transactionID, OrderID: "order_1"}
}

func cardRequest() models.PaymentRequest {
	return models.PaymentRequest{
		Amount:    decimal.NewFromInt(500),
		Currency:  "INR",
		Method:    models.MethodRazorpay,
		BookingID: "B1",
		UserEmail: "player@academy.test",
	}
}

func TestPayValidation(t *testing.T) {
	tests := []struct {
		name string
		req  models.PaymentRequest
	}{
		{"no method", models.PaymentRequest{Amount: decimal.NewFromInt(1), BookingID: "B1"}},
		{"zero amount", models.PaymentRequest{Method: models.MethodCash, BookingID: "B1"}},
		{"both ids", models.PaymentRequest{Amount: decimal.NewFromInt(1), Method: models.MethodCash, BookingID: "B1", CoachingID: "C1"}},
		{"neither id", models.PaymentRequest{Amount: decimal.NewFromInt(1), Method: models.MethodCash}},
		{"bad currency", models.PaymentRequest{Amount: decimal.NewFromInt(1), Currency: "RUPEES", Method: models.MethodCash, BookingID: "B1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Options{}, captured("pay_1"))
			out, err := f.o.Pay(context.Background(), tt.req)
			require.NoError(t, err)
			assert.False(t, out.Success)
			assert.Equal(t, models.ErrCodeValidation, out.ErrorCode)
			assert.Zero(t, f.gateway.loads)
			assert.Empty(t, f.recorder.calls)
		})
	}
}

func TestPayCashTouchesNoGateway(t *testing.T) {
	f := newFixture(Options{}, captured("pay_1"))

	out, err := f.o.Pay(context.Background(), models.PaymentRequest{
		Amount:    decimal.NewFromInt(500),
		Method:    models.MethodCash,
		BookingID: "B1",
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, models.MethodCash, out.Method)
	assert.True(t, decimal.NewFromInt(500).Equal(out.Amount))
	assert.Equal(t, "INR", out.Currency)
	assert.NotEmpty(t, out.Reference)
	assert.Equal(t, DefaultCashInstructions, out.Instructions)
	assert.Zero(t, f.gateway.loads)
	assert.Empty(t, f.recorder.calls)
}

func TestPayCashRecordedWhenConfigured(t *testing.T) {
	f := newFixture(Options{RecordOffline: true}, captured("pay_1"))
	f.recorder.errs = []error{errors.New("connection refused")}

	out, err := f.o.Pay(context.Background(), models.PaymentRequest{
		Amount:     decimal.NewFromInt(500),
		Method:     models.MethodCash,
		CoachingID: "C1",
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	require.Len(t, f.recorder.calls, 1)
	assert.Empty(t, f.recorder.calls[0].TransactionID)
	assert.Equal(t, "C1", f.recorder.calls[0].CoachingID)
}

func TestPayCardHappyPath(t *testing.T) {
	f := newFixture(Options{}, captured("pay_123"))

	out, err := f.o.Pay(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "pay_123", out.TransactionID)
	assert.Equal(t, models.MethodRazorpay, out.Method)
	assert.Equal(t, "P-1", out.Reference)

	require.Len(t, f.gateway.orders, 1)
	assert.Equal(t, int64(50000), f.gateway.orders[0].MinorAmount)
	assert.True(t, decimal.NewFromInt(500).Equal(f.gateway.orders[0].Amount))

	require.Len(t, f.recorder.calls, 1)
	call := f.recorder.calls[0]
	assert.Equal(t, "pay_123", call.TransactionID)
	assert.Equal(t, "B1", call.BookingID)
	assert.Empty(t, call.CoachingID)
	assert.Equal(t, "500", call.Amount.String())
	assert.Empty(t, f.alerter.alerts)
}

func TestPayWalletCancelledSkipsRecording(t *testing.T) {
	f := newFixture(Options{}, models.CancelledOutcome(""))

	req := cardRequest()
	req.Method = models.MethodPayPal
	out, err := f.o.Pay(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.True(t, out.Cancelled)
	assert.Equal(t, models.ErrCodeCancelled, out.ErrorCode)
	assert.False(t, out.RequiresManualReview)
	assert.Empty(t, f.recorder.calls)
}

func TestPayRecordingFailureNeedsManualReview(t *testing.T) {
	f := newFixture(Options{ReconcileRetries: 2}, captured("pay_123"))
	f.recorder.errs = []error{
		&backend.APIError{Status: 500},
		&backend.APIError{Status: 500},
		&backend.APIError{Status: 500},
	}

	out, err := f.o.Pay(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.True(t, out.RequiresManualReview)
	assert.Equal(t, models.ErrCodeRecordingFailed, out.ErrorCode)
	assert.Equal(t, "pay_123", out.TransactionID)
	assert.Equal(t, "J-pay_123", out.Reference)

	assert.Equal(t, 1, f.gateway.openings)
	assert.Len(t, f.recorder.calls, 3)
	for _, call := range f.recorder.calls {
		assert.Equal(t, "pay_123", call.TransactionID)
	}
	require.Len(t, f.alerter.alerts, 1)
	assert.Equal(t, "pay_123", f.alerter.alerts[0].TransactionID)
	assert.Contains(t, f.journal.entries, "J-pay_123")
}

func TestPayRecordingRecoversOnRetry(t *testing.T) {
	f := newFixture(Options{ReconcileRetries: 2}, captured("pay_123"))
	f.recorder.errs = []error{errors.New("connection reset")}

	out, err := f.o.Pay(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Len(t, f.recorder.calls, 2)
	assert.Empty(t, f.journal.entries)
}

func TestPayRecordingRejectedIsNotRetried(t *testing.T) {
	f := newFixture(Options{ReconcileRetries: 3}, captured("pay_123"))
	f.recorder.errs = []error{&backend.APIError{Status: 422, Message: "booking closed"}}

	out, err := f.o.Pay(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.True(t, out.RequiresManualReview)
	assert.Len(t, f.recorder.calls, 1)
}

func TestPayRecordingSessionExpired(t *testing.T) {
	f := newFixture(Options{}, captured("pay_123"))
	f.recorder.errs = []error{&backend.APIError{Status: 401}}

	out, err := f.o.Pay(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeSessionExpired, out.ErrorCode)
	assert.True(t, out.RequiresManualReview)
	assert.Len(t, f.alerter.alerts, 1)
}

func TestPayGatewayFailures(t *testing.T) {
	t.Run("sdk timeout", func(t *testing.T) {
		f := newFixture(Options{}, captured("pay_1"))
		f.gateway.loadErr = &checkout.LoadError{Code: models.ErrCodeSDKLoadTimeout, URL: "x", Err: context.DeadlineExceeded}

		out, err := f.o.Pay(context.Background(), cardRequest())
		require.NoError(t, err)
		assert.Equal(t, models.ErrCodeSDKLoadTimeout, out.ErrorCode)
		assert.Empty(t, f.gateway.orders)
	})

	t.Run("order refused", func(t *testing.T) {
		f := newFixture(Options{}, captured("pay_1"))
		f.gateway.orderErr = errors.Wrap(&backend.APIError{Status: 400}, "failed creating order")

		out, err := f.o.Pay(context.Background(), cardRequest())
		require.NoError(t, err)
		assert.Equal(t, models.ErrCodeOrderFailed, out.ErrorCode)
		assert.Zero(t, f.gateway.openings)
	})

	t.Run("session expired", func(t *testing.T) {
		f := newFixture(Options{}, captured("pay_1"))
		f.gateway.orderErr = errors.Wrap(&backend.APIError{Status: 401}, "failed creating order")

		out, err := f.o.Pay(context.Background(), cardRequest())
		require.NoError(t, err)
		assert.Equal(t, models.ErrCodeSessionExpired, out.ErrorCode)
	})

	t.Run("transport error propagates", func(t *testing.T) {
		f := newFixture(Options{}, captured("pay_1"))
		f.gateway.orderErr = errors.New("dial tcp: no such host")

		_, err := f.o.Pay(context.Background(), cardRequest())
		assert.Error(t, err)
	})

	t.Run("gateway declined", func(t *testing.T) {
		declined := models.Failed(models.ErrCodeGateway, "Card declined")
		f := newFixture(Options{}, declined)

		out, err := f.o.Pay(context.Background(), cardRequest())
		require.NoError(t, err)
		assert.Equal(t, models.ErrCodeGateway, out.ErrorCode)
		assert.Empty(t, f.recorder.calls)
		assert.Empty(t, f.alerter.alerts)
	})

	t.Run("unverified capture is escalated", func(t *testing.T) {
		unverified := models.Failed(models.ErrCodeVerificationFailed, "not confirmed")
		unverified.TransactionID = "pay_9"
		unverified.RequiresManualReview = true
		f := newFixture(Options{}, unverified)

		out, err := f.o.Pay(context.Background(), cardRequest())
		require.NoError(t, err)
		assert.True(t, out.RequiresManualReview)
		assert.Empty(t, f.recorder.calls)
		assert.Len(t, f.alerter.alerts, 1)
	})
}

func TestPayUnconfirmedCaptureIsEscalated(t *testing.T) {
	unconfirmed := models.Failed(models.ErrCodeCaptureFailed, "not confirmed")
	unconfirmed.OrderID = "PP-1"
	unconfirmed.RequiresManualReview = true
	f := newFixture(Options{}, unconfirmed)

	req := cardRequest()
	req.Method = models.MethodPayPal
	out, err := f.o.Pay(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.True(t, out.RequiresManualReview)
	assert.Empty(t, out.TransactionID)
	assert.Empty(t, f.recorder.calls)

	require.Len(t, f.journal.entries, 1)
	require.Len(t, f.alerter.alerts, 1)
	assert.Equal(t, "PP-1", f.alerter.alerts[0].OrderID)
	assert.Equal(t, models.MethodPayPal, f.alerter.alerts[0].Method)
	assert.Equal(t, "J-order:PP-1", out.Reference)

	_, err = f.o.RetryRecording(context.Background(), out.Reference)
	assert.Error(t, err)
	assert.Empty(t, f.recorder.calls)
}

func TestPayMethodWithoutGateway(t *testing.T) {
	o := New(Options{}, &fakeRecorder{}, nil, nil, nil)

	out, err := o.Pay(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeMethodNotAllowed, out.ErrorCode)
}

func TestRetryRecording(t *testing.T) {
	f := newFixture(Options{}, captured("pay_123"))
	f.recorder.errs = []error{&backend.APIError{Status: 500}}

	out, err := f.o.Pay(context.Background(), cardRequest())
	require.NoError(t, err)
	require.True(t, out.RequiresManualReview)

	f.recorder.errs = []error{&backend.APIError{Status: 503}}
	_, err = f.o.RetryRecording(context.Background(), out.Reference)
	assert.Error(t, err)
	assert.Equal(t, 2, f.journal.entries[out.Reference].Attempts)

	recorded, err := f.o.RetryRecording(context.Background(), out.Reference)
	require.NoError(t, err)
	assert.True(t, recorded.Success)
	assert.Equal(t, "pay_123", recorded.TransactionID)
	assert.NotNil(t, f.journal.entries[out.Reference].Recorded)

	last := f.recorder.calls[len(f.recorder.calls)-1]
	assert.Equal(t, "pay_123", last.TransactionID)
	assert.Equal(t, "B1", last.BookingID)

	_, err = f.o.RetryRecording(context.Background(), out.Reference)
	assert.Error(t, err)
}
