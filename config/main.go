package config

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/kamalnath14061995/IndusionCricket-sub001/authfetch"
	"github.com/kamalnath14061995/IndusionCricket-sub001/backend"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/credentials"
	"github.com/kamalnath14061995/IndusionCricket-sub001/db"
	"github.com/kamalnath14061995/IndusionCricket-sub001/helpers"
	"github.com/kamalnath14061995/IndusionCricket-sub001/paypal"
	"github.com/kamalnath14061995/IndusionCricket-sub001/payment"
	"github.com/kamalnath14061995/IndusionCricket-sub001/policy"
	"github.com/kamalnath14061995/IndusionCricket-sub001/razorpay"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Configuration struct {
	AppName     string `env:"APP_NAME,default=academypay"`
	Environment string `env:"ENVIRONMENT,default=development"`
	Backend     backendConf
	Credentials credentialsConf
	Checkout    checkoutConf
	Razorpay    razorpayConf
	PayPal      paypalConf
	Payments    paymentsConf
	Journal     journalConf
	SMTP        smtpConf
	Mail        mail
	AwsS3       awsS3
	Receipt     receiptConf
}

type backendConf struct {
	URL     string        `env:"BACKEND_URL,required"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT,default=20s"`
}

type credentialsConf struct {
	File string `env:"CREDENTIALS_FILE,default=.academypay/credentials.json"`
}

type checkoutConf struct {
	Addr           string        `env:"CHECKOUT_ADDR,default=127.0.0.1:8765"`
	PublicURL      string        `env:"CHECKOUT_PUBLIC_URL"`
	Timeout        int           `env:"CHECKOUT_HTTP_TIMEOUT,default=10"`
	OpenTimeout    time.Duration `env:"CHECKOUT_OPEN_TIMEOUT,default=10m"`
	SDKLoadTimeout time.Duration `env:"SDK_LOAD_TIMEOUT,default=15s"`
	OpenBrowser    bool          `env:"CHECKOUT_OPEN_BROWSER,default=false"`
	AllowedOrigins []string      `env:"CHECKOUT_ALLOWED_ORIGINS,default=*"`
}

type razorpayConf struct {
	KeyID     string `env:"RAZORPAY_KEY_ID"`
	ScriptURL string `env:"RAZORPAY_SCRIPT_URL,default=https://checkout.razorpay.com/v1/checkout.js"`
}

type paypalConf struct {
	ClientID string `env:"PAYPAL_CLIENT_ID"`
	Currency string `env:"PAYPAL_CURRENCY,default=USD"`
	SDKURL   string `env:"PAYPAL_SDK_URL,default=https://www.paypal.com/sdk/js"`
}

type paymentsConf struct {
	MerchantName     string        `env:"MERCHANT_NAME,default=Indusion Cricket Academy"`
	DefaultCurrency  string        `env:"PAYMENT_DEFAULT_CURRENCY,default=INR"`
	ReconcileRetries int           `env:"PAYMENT_RECONCILE_RETRIES,default=2"`
	RetryDelay       time.Duration `env:"PAYMENT_RETRY_DELAY,default=2s"`
	PolicyTTL        time.Duration `env:"PAYMENT_POLICY_TTL,default=1m"`
	RecordOffline    bool          `env:"PAYMENT_RECORD_OFFLINE,default=false"`
	CashInstructions string        `env:"PAYMENT_CASH_INSTRUCTIONS"`
}

type journalConf struct {
	Driver string `env:"JOURNAL_DRIVER,default=sqlite3"`
	DSN    string `env:"JOURNAL_DSN,default=academypay-journal.db"`
}

type smtpConf struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
}

type mail struct {
	NameFrom     string `env:"MAIL_NAME_FROM,default=Academy Payments"`
	EmailFrom    string `env:"MAIL_EMAIL_FROM"`
	SupportEmail string `env:"MAIL_SUPPORT_EMAIL"`
}

type awsS3 struct {
	S3Region      string `env:"S3_REGION"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3PathReceipt string `env:"S3_PATH_RECEIPT,default=receipts"`
}

type receiptConf struct {
	Dir string `env:"RECEIPT_DIR,default=receipts"`
	PDF bool   `env:"RECEIPT_PDF,default=false"`
}

// CheckoutURL is where the browser reaches the checkout server.
func (c *Configuration) CheckoutURL() string {
	if c.Checkout.PublicURL != "" {
		return strings.TrimRight(c.Checkout.PublicURL, "/")
	}
	return "http://" + c.Checkout.Addr
}

type AppContext struct {
	Config   Configuration
	Store    credentials.Store
	Fetch    *authfetch.Client
	Backend  *backend.Client
	Policy   *policy.Cache
	Sessions *checkout.Registry
	Launcher checkout.Launcher
	Razorpay *razorpay.Gateway
	PayPal   *paypal.Gateway
	DB       db.Storage
	SQLConn  *db.DB
	SMTP     *gomail.Dialer
	AwsS3    *session.Session
	Archive  *helpers.ReceiptArchive
	Payments *payment.Orchestrator
}

func CreateCredentialStore(conf credentialsConf) credentials.Store {
	if conf.File == "" {
		return credentials.NewMemory(credentials.Pair{})
	}
	path := conf.File
	if !filepath.IsAbs(path) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path)
		}
	}
	store := credentials.NewFile(path)
	store.OnError = func(err error) {
		log.WithError(err).WithField("path", path).Warn("credential store")
	}
	return store
}

func CreateBackendClient(conf backendConf, store credentials.Store) (*authfetch.Client, *backend.Client) {
	fetch := authfetch.New(conf.URL, &http.Client{Timeout: conf.Timeout}, store)
	return fetch, backend.New(fetch)
}

func CreateLauncher(conf checkoutConf) checkout.Launcher {
	if conf.OpenBrowser {
		return checkout.BrowserLauncher{}
	}
	return &checkout.PrintLauncher{Out: os.Stdout}
}

func CreateRazorpayIntegration(conf razorpayConf, c *Configuration, b *backend.Client, sessions *checkout.Registry, launcher checkout.Launcher) *razorpay.Gateway {
	return razorpay.New(razorpay.Options{
		KeyID:          conf.KeyID,
		MerchantName:   c.Payments.MerchantName,
		ScriptURL:      conf.ScriptURL,
		SDKLoadTimeout: c.Checkout.SDKLoadTimeout,
		OpenTimeout:    c.Checkout.OpenTimeout,
	}, b, sessions, launcher)
}

func CreatePayPalIntegration(conf paypalConf, c *Configuration, b *backend.Client, sessions *checkout.Registry, launcher checkout.Launcher) *paypal.Gateway {
	return paypal.New(paypal.Options{
		ClientID:       conf.ClientID,
		Currency:       conf.Currency,
		MerchantName:   c.Payments.MerchantName,
		SDKURL:         conf.SDKURL,
		SDKLoadTimeout: c.Checkout.SDKLoadTimeout,
		OpenTimeout:    c.Checkout.OpenTimeout,
	}, b, sessions, launcher)
}

func CreateJournal(conf journalConf) (*db.DB, error) {
	return db.Open(conf.Driver, conf.DSN)
}

func CreateNewConnectionSMTP(conf smtpConf) *gomail.Dialer {
	if conf.Host == "" {
		return nil
	}
	return gomail.NewDialer(conf.Host, conf.Port, conf.User, conf.Password)
}

func CreateNewSessionS3(conf awsS3) (*session.Session, error) {
	return session.NewSession(&aws.Config{Region: aws.String(conf.S3Region)})
}

var logger = log.NewEntry(log.StandardLogger())

func SetLogger(newLogger *log.Entry) {
	logger = newLogger
}

func GetLogger() *log.Entry {
	return logger
}

type loggerKey struct{}

func WithLogger(ctx context.Context, entry *log.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// LoggerFrom returns the request logger, or the app logger outside a request.
func LoggerFrom(ctx context.Context) *log.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*log.Entry); ok {
		return entry
	}
	return GetLogger()
}
