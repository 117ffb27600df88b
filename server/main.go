package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	joonix "github.com/joonix/log"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/config"
	"github.com/kamalnath14061995/IndusionCricket-sub001/helpers"
	"github.com/kamalnath14061995/IndusionCricket-sub001/middlewares"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/kamalnath14061995/IndusionCricket-sub001/payment"
	"github.com/kamalnath14061995/IndusionCricket-sub001/policy"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

func recoveryHandler(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if err := recover(); err != nil {
			config.LoggerFrom(r.Context()).Error(err)
			(&middlewares.ResponseWriter{Writer: w}).Error(http.StatusInternalServerError, "internal server error")
			return
		}
	}()
	next(w, r)
}

type AppHandlerFunc func(*config.AppContext, *middlewares.ResponseWriter, *http.Request)

type AppHandler struct {
	Context     *config.AppContext
	HandlerFunc AppHandlerFunc
}

func (a *AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.HandlerFunc(a.Context, middlewares.NewResponseWriter(w, r), r)
}

type Route struct {
	Path    string
	Handler AppHandlerFunc
	Methods []string
}

func NewRouter(ctx *config.AppContext, routes []*Route) *mux.Router {
	router := mux.NewRouter()
	for _, r := range routes {
		handler := &AppHandler{Context: ctx, HandlerFunc: r.Handler}
		router.Handle(r.Path, handler).Methods(r.Methods...)
	}
	return router
}

func GetAppContext() (*ContextWrapper, error) {
	log.SetFormatter(joonix.NewFormatter())
	var conf config.Configuration
	if err := envdecode.Decode(&conf); err != nil {
		return nil, errors.Wrap(err, "could not load the app configuration")
	}
	config.SetLogger(log.WithFields(log.Fields{"app": conf.AppName, "environment": conf.Environment}))

	return &ContextWrapper{
		Context: &config.AppContext{
			Config: conf,
		},
	}, nil
}

type ContextWrapper struct {
	Context *config.AppContext
}

func (wrapper *ContextWrapper) CreateCredentialStore() {
	wrapper.Context.Store = config.CreateCredentialStore(wrapper.Context.Config.Credentials)
}

func (wrapper *ContextWrapper) CreateBackendClient() {
	if wrapper.Context.Store == nil {
		wrapper.CreateCredentialStore()
	}
	wrapper.Context.Fetch, wrapper.Context.Backend = config.CreateBackendClient(wrapper.Context.Config.Backend, wrapper.Context.Store)
	wrapper.Context.Policy = policy.NewCache(wrapper.Context.Backend, wrapper.Context.Config.Payments.PolicyTTL)
}

func (wrapper *ContextWrapper) CreateCheckoutIntegrations() {
	c := wrapper.Context
	if c.Backend == nil {
		wrapper.CreateBackendClient()
	}
	c.Sessions = checkout.NewRegistry(c.Config.CheckoutURL())
	c.Launcher = config.CreateLauncher(c.Config.Checkout)
	c.Razorpay = config.CreateRazorpayIntegration(c.Config.Razorpay, &c.Config, c.Backend, c.Sessions, c.Launcher)
	c.PayPal = config.CreatePayPalIntegration(c.Config.PayPal, &c.Config, c.Backend, c.Sessions, c.Launcher)
}

func (wrapper *ContextWrapper) CreateJournal() error {
	journal, err := config.CreateJournal(wrapper.Context.Config.Journal)
	if err != nil {
		return errors.Wrapf(err, "%s: failed to open journal", wrapper.Context.Config.Journal.Driver)
	}
	wrapper.Context.SQLConn = journal
	wrapper.Context.DB = journal
	return nil
}

// CreateSMTPConnection is optional: without SMTP_HOST no alerts are mailed.
func (wrapper *ContextWrapper) CreateSMTPConnection() {
	wrapper.Context.SMTP = config.CreateNewConnectionSMTP(wrapper.Context.Config.SMTP)
	if wrapper.Context.SMTP == nil {
		log.Warn("SMTP_HOST not set, support alerts disabled")
	}
}

// CreateNewSessionS3 is optional: without S3_BUCKET receipts stay local.
func (wrapper *ContextWrapper) CreateNewSessionS3() error {
	conf := wrapper.Context.Config.AwsS3
	if conf.S3Bucket == "" {
		return nil
	}
	session, err := config.CreateNewSessionS3(conf)
	if err != nil {
		return errors.Wrap(err, "failed to create new session s3")
	}
	if session == nil {
		return errors.New("nil session s3")
	}
	wrapper.Context.AwsS3 = session
	wrapper.Context.Archive = helpers.NewReceiptArchive(session, conf.S3Bucket, conf.S3PathReceipt)
	return nil
}

func (wrapper *ContextWrapper) CreatePaymentOrchestrator() {
	c := wrapper.Context
	if c.Razorpay == nil || c.PayPal == nil {
		wrapper.CreateCheckoutIntegrations()
	}

	var journal payment.Journal
	if c.DB != nil {
		journal = c.DB
	}
	var alerter payment.Alerter
	if c.SMTP != nil && c.Config.Mail.SupportEmail != "" {
		alerter = &helpers.SupportAlert{
			SMTP:      c.SMTP,
			EmailFrom: c.Config.Mail.EmailFrom,
			NameFrom:  c.Config.Mail.NameFrom,
			EmailTo:   c.Config.Mail.SupportEmail,
		}
	}

	c.Payments = payment.New(payment.Options{
		DefaultCurrency:  c.Config.Payments.DefaultCurrency,
		ReconcileRetries: c.Config.Payments.ReconcileRetries,
		RetryDelay:       c.Config.Payments.RetryDelay,
		RecordOffline:    c.Config.Payments.RecordOffline,
		CashInstructions: c.Config.Payments.CashInstructions,
	}, c.Backend, journal, alerter, map[models.MethodKey]payment.Gateway{
		models.MethodRazorpay: c.Razorpay,
		models.MethodPayPal:   c.PayPal,
	})
}

// Close releases what the context opened.
func (wrapper *ContextWrapper) Close() {
	if wrapper.Context.SQLConn != nil {
		wrapper.Context.SQLConn.Close()
	}
}

// CheckoutServer is the local server gateway pages report back to.
type CheckoutServer struct {
	server   *http.Server
	listener net.Listener
	done     chan error
}

// StartCheckoutServer listens on CHECKOUT_ADDR and serves in the background.
func StartCheckoutServer(routes []*Route, wrapper *ContextWrapper) (*CheckoutServer, error) {
	server := createServer(wrapper.Context, routes)
	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed listening on %s", server.Addr)
	}

	s := &CheckoutServer{server: server, listener: listener, done: make(chan error, 1)}
	go func() {
		err := server.Serve(listener)
		if err == http.ErrServerClosed {
			err = nil
		}
		s.done <- err
	}()

	log.Info("Environment " + wrapper.Context.Config.Environment)
	log.Info("Checkout server listening on " + listener.Addr().String())
	return s, nil
}

func (s *CheckoutServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *CheckoutServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}

func createServer(context *config.AppContext, routes []*Route) *http.Server {
	n := negroni.New()
	c := cors.New(cors.Options{
		AllowedOrigins: context.Config.Checkout.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "HEAD"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "X-Request-ID"},
	})
	n.Use(c)
	n.UseFunc(recoveryHandler)
	n.Use(negroni.HandlerFunc(middlewares.RequestID))
	n.Use(negroni.HandlerFunc(middlewares.LoggerRequest))
	n.UseHandler(NewRouter(context, routes))

	timeout := time.Duration(context.Config.Checkout.Timeout) * time.Second
	return &http.Server{
		Addr:         context.Config.Checkout.Addr,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		Handler:      n,
	}
}

// Handler exposes the middleware stack and routes without a listener.
func Handler(context *config.AppContext, routes []*Route) http.Handler {
	return createServer(context, routes).Handler
}
