package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/config"
	"github.com/kamalnath14061995/IndusionCricket-sub001/middlewares"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/kamalnath14061995/IndusionCricket-sub001/paypal"
	log "github.com/sirupsen/logrus"
	"github.com/thedevsaddam/govalidator"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func GetCheckoutPage(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	session, ok := ctx.Sessions.Get(mux.Vars(r)["session"])
	if !ok {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.SessionNotFound)
		return
	}
	w.HTML(http.StatusOK, session.Page)
}

func CompleteCheckout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.RazorpayCompleteOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.RazorpayCompleteRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	settle(ctx, w, mux.Vars(r)["session"], checkout.Callback{
		Kind:      checkout.KindComplete,
		PaymentID: opts.PaymentID,
		OrderID:   opts.OrderID,
		Signature: opts.Signature,
	})
}

func ApproveCheckout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.PayPalApproveOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.PayPalApproveRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	settle(ctx, w, mux.Vars(r)["session"], checkout.Callback{
		Kind:    checkout.KindApproved,
		OrderID: opts.OrderID,
		PayerID: opts.PayerID,
	})
}

func FailCheckout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.GatewayFailedOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GatewayFailedRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	message := opts.Description
	if message == "" {
		message = opts.Reason
	}
	settle(ctx, w, mux.Vars(r)["session"], checkout.Callback{
		Kind:    checkout.KindFailed,
		Code:    opts.Code,
		Message: message,
	})
}

func DismissCheckout(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	settle(ctx, w, mux.Vars(r)["session"], checkout.Callback{Kind: checkout.KindDismissed})
}

func PayPalReturn(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var query models.PayPalRedirectQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil || query.Token == "" {
		w.Write(http.StatusBadRequest, nil, err, middlewares.Responses.MissingOrderToken)
		return
	}

	err := ctx.Sessions.SettleByOrder(paypal.Provider, query.Token, checkout.Callback{
		Kind:    checkout.KindApproved,
		OrderID: query.Token,
		PayerID: query.PayerID,
	})
	redirectResult(w, err, middlewares.Responses.CheckoutRecorded)
}

func PayPalCancel(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var query models.PayPalRedirectQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil || query.Token == "" {
		w.Write(http.StatusBadRequest, nil, err, middlewares.Responses.MissingOrderToken)
		return
	}

	err := ctx.Sessions.SettleByOrder(paypal.Provider, query.Token, checkout.Callback{Kind: checkout.KindDismissed})
	redirectResult(w, err, middlewares.Responses.CheckoutClosed)
}

func settle(ctx *config.AppContext, w *middlewares.ResponseWriter, sessionID string, cb checkout.Callback) {
	switch err := ctx.Sessions.Settle(sessionID, cb); err {
	case nil:
		w.Logger.WithFields(log.Fields{"session_id": sessionID, "kind": cb.Kind}).Info("checkout settled")
		w.WriteJSON(http.StatusOK, map[string]string{"status": string(cb.Kind)}, nil, "")
	case checkout.ErrUnknownSession:
		w.Write(http.StatusNotFound, nil, err, middlewares.Responses.SessionNotFound)
	case checkout.ErrAlreadySettled:
		w.Write(http.StatusConflict, nil, err, middlewares.Responses.SessionSettled)
	default:
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
	}
}

func redirectResult(w *middlewares.ResponseWriter, err error, done *middlewares.NewRM) {
	switch err {
	case nil:
		w.String(http.StatusOK, done.Get(w.Language))
	case checkout.ErrUnknownSession:
		w.Write(http.StatusNotFound, nil, err, middlewares.Responses.SessionNotFound)
	case checkout.ErrAlreadySettled:
		w.Write(http.StatusConflict, nil, err, middlewares.Responses.SessionSettled)
	default:
		w.Write(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError)
	}
}
