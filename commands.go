package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kamalnath14061995/IndusionCricket-sub001/api"
	"github.com/kamalnath14061995/IndusionCricket-sub001/credentials"
	"github.com/kamalnath14061995/IndusionCricket-sub001/helpers"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/kamalnath14061995/IndusionCricket-sub001/policy"
	"github.com/kamalnath14061995/IndusionCricket-sub001/server"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func appContext() (*server.ContextWrapper, error) {
	wrapper, err := server.GetAppContext()
	if err != nil {
		return nil, err
	}
	wrapper.CreateCredentialStore()
	wrapper.CreateBackendClient()
	return wrapper, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func signedInUser(store credentials.Store) (*models.InfoUser, error) {
	user, err := helpers.UserFromToken(store.Get().AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "not signed in, run academypay login")
	}
	return user, nil
}

func Pay(c *cli.Context) error {
	amount, err := decimal.NewFromString(c.String("amount"))
	if err != nil {
		return errors.Wrapf(err, "bad amount %q", c.String("amount"))
	}
	req := models.PaymentRequest{
		Amount:     amount,
		Currency:   strings.ToUpper(c.String("currency")),
		Method:     models.MethodKey(strings.ToUpper(c.String("method"))),
		BookingID:  c.String("booking"),
		CoachingID: c.String("coaching"),
		UserEmail:  c.String("email"),
	}

	wrapper, err := appContext()
	if err != nil {
		return err
	}
	defer wrapper.Close()
	if invalid := checkRequest(&req, wrapper.Context.Config.Payments.DefaultCurrency); invalid != nil {
		return printJSON(invalid)
	}
	if err := wrapper.CreateJournal(); err != nil {
		log.WithError(err).Warn("payment journal unavailable")
	}
	wrapper.CreateSMTPConnection()
	if err := wrapper.CreateNewSessionS3(); err != nil {
		log.WithError(err).Warn("receipt archive unavailable")
	}
	wrapper.CreatePaymentOrchestrator()
	app := wrapper.Context

	ctx, cancel := signalContext()
	defer cancel()

	user, err := signedInUser(app.Store)
	if err != nil {
		return err
	}
	if req.UserEmail == "" {
		req.UserEmail = user.Email
	}
	if err := app.Policy.Check(ctx, user.ID, req.Method); err != nil {
		if _, ok := err.(*policy.NotAllowedError); ok {
			out := models.Failed(models.ErrCodeMethodNotAllowed, err.Error())
			out.Method = req.Method
			return printJSON(out)
		}
		return err
	}

	descriptor, ok := models.LookupMethod(req.Method)
	if ok && descriptor.Type == models.MethodTypeOnline {
		checkoutServer, err := server.StartCheckoutServer(api.GetRoutes(), wrapper)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := checkoutServer.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("checkout server shutdown")
			}
		}()
	}

	out, err := app.Payments.Pay(ctx, req)
	if err != nil {
		return err
	}
	if err := printJSON(out); err != nil {
		return err
	}
	if out.Success || out.RequiresManualReview {
		if !c.Bool("no-receipt") {
			writeReceipt(ctx, wrapper, &req, out)
		}
	}
	return nil
}

// checkRequest fills the default currency and returns a VALIDATION outcome
// for a request that cannot be paid, or nil.
func checkRequest(req *models.PaymentRequest, defaultCurrency string) *models.PaymentOutcome {
	if req.Currency == "" {
		req.Currency = defaultCurrency
	}
	if err := req.Validate(); err != nil {
		out := models.Failed(models.ErrCodeValidation, err.Error())
		out.Method = req.Method
		return out
	}
	return nil
}

// writeReceipt never fails the payment command.
func writeReceipt(ctx context.Context, wrapper *server.ContextWrapper, req *models.PaymentRequest, out *models.PaymentOutcome) {
	app := wrapper.Context
	receipt, err := helpers.Receipt(app.Config.Payments.MerchantName, req.Subject(), out, time.Now())
	if err != nil {
		log.WithError(err).Warn("failed rendering receipt")
		return
	}

	name := receiptName(out)
	body, contentType := receipt.HTML(), "text/html"
	if app.Config.Receipt.PDF {
		pdf, err := receipt.GeneratePDF()
		if err != nil {
			log.WithError(err).Warn("failed generating pdf receipt, keeping html")
		} else {
			body, contentType = pdf.Bytes(), "application/pdf"
		}
	}
	if contentType == "application/pdf" {
		name += ".pdf"
	} else {
		name += ".html"
	}

	if err := os.MkdirAll(app.Config.Receipt.Dir, 0o755); err != nil {
		log.WithError(err).Warn("failed creating receipt dir")
		return
	}
	path := filepath.Join(app.Config.Receipt.Dir, name)
	if err := ioutil.WriteFile(path, body, 0o644); err != nil {
		log.WithError(err).Warn("failed writing receipt")
		return
	}
	fmt.Println("Receipt: " + path)

	if app.Archive != nil {
		location, err := app.Archive.AddFile(ctx, body, name, contentType)
		if err != nil {
			log.WithError(err).Warn("failed archiving receipt")
			return
		}
		fmt.Println("Archived: " + location)
	}
}

func receiptName(out *models.PaymentOutcome) string {
	id := out.TransactionID
	if id == "" {
		id = out.Reference
	}
	return strings.ToLower(string(out.Method)) + "-" + strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, id)
}

func Methods(c *cli.Context) error {
	wrapper, err := appContext()
	if err != nil {
		return err
	}
	app := wrapper.Context
	ctx, cancel := signalContext()
	defer cancel()

	userID := c.String("user")
	if userID == "" {
		user, err := signedInUser(app.Store)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	if c.Bool("remote") {
		allowed, err := app.Backend.GetAllowedMethods(ctx, userID)
		if err != nil {
			return err
		}
		return printJSON(allowed)
	}

	allowed, err := app.Policy.Allowed(ctx, userID)
	if err != nil {
		return err
	}
	methods := []models.PaymentMethodDescriptor{}
	for _, key := range allowed.Keys() {
		if descriptor, ok := models.LookupMethod(key); ok {
			methods = append(methods, descriptor)
		}
	}
	return printJSON(map[string]interface{}{"userId": userID, "methods": methods})
}

func ShowConfig(c *cli.Context) error {
	wrapper, err := appContext()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := wrapper.Context.Policy.Config(ctx)
	if err != nil {
		return err
	}
	return printJSON(cfg)
}

func SetMethodEnabled(c *cli.Context) error {
	method := models.MethodKey(strings.ToUpper(c.String("method")))
	if _, ok := models.LookupMethod(method); !ok {
		return errors.Errorf("unknown payment method %q", c.String("method"))
	}

	wrapper, err := appContext()
	if err != nil {
		return err
	}
	app := wrapper.Context
	ctx, cancel := signalContext()
	defer cancel()

	user, err := signedInUser(app.Store)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		log.WithField("user_id", user.ID).Warn("not an admin, the backend will likely refuse")
	}

	current, err := app.Policy.Config(ctx)
	if err != nil {
		return err
	}
	next := current.Clone()
	if next.GlobalEnabled == nil {
		next.GlobalEnabled = make(map[models.MethodKey]bool)
	}
	next.GlobalEnabled[method] = c.BoolT("enabled")

	updated, err := app.Policy.Update(ctx, next)
	if err != nil {
		return err
	}
	return printJSON(updated)
}

func ListJournal(c *cli.Context) error {
	wrapper, err := server.GetAppContext()
	if err != nil {
		return err
	}
	defer wrapper.Close()
	if err := wrapper.CreateJournal(); err != nil {
		return err
	}

	entries, err := wrapper.Context.DB.ListUnrecorded()
	if err != nil {
		return err
	}
	return printJSON(entries)
}

func RetryJournal(c *cli.Context) error {
	id := c.String("id")
	if id == "" {
		return errors.New("--id is required")
	}

	wrapper, err := appContext()
	if err != nil {
		return err
	}
	defer wrapper.Close()
	if err := wrapper.CreateJournal(); err != nil {
		return err
	}
	wrapper.CreatePaymentOrchestrator()
	ctx, cancel := signalContext()
	defer cancel()

	out, err := wrapper.Context.Payments.RetryRecording(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func Login(c *cli.Context) error {
	pair := credentials.Pair{AccessToken: c.String("access"), RefreshToken: c.String("refresh")}
	if !helpers.LooksLikeJWT(pair.AccessToken) {
		return errors.New("--access must be the JWT issued by the academy login")
	}

	wrapper, err := server.GetAppContext()
	if err != nil {
		return err
	}
	wrapper.CreateCredentialStore()
	wrapper.Context.Store.Set(pair)

	user, err := helpers.UserFromToken(pair.AccessToken)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Email, user.ID)
	return nil
}

func Logout(c *cli.Context) error {
	wrapper, err := server.GetAppContext()
	if err != nil {
		return err
	}
	wrapper.CreateCredentialStore()
	wrapper.Context.Store.Clear()
	return nil
}
