package api

import (
	"net/http"

	"github.com/kamalnath14061995/IndusionCricket-sub001/config"
	"github.com/kamalnath14061995/IndusionCricket-sub001/middlewares"
	"github.com/kamalnath14061995/IndusionCricket-sub001/server"
)

// HealthcheckHandler indicates the service's healthy
func HealthcheckHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.String(http.StatusOK, "OK")
}

// GetRoutes ...
func GetRoutes() []*server.Route {
	return []*server.Route{
		{Path: "/healthcheck", Methods: []string{"GET", "HEAD"}, Handler: HealthcheckHandler},

		// PayPal redirects
		{Path: "/checkout/paypal/return", Methods: []string{"GET"}, Handler: PayPalReturn},
		{Path: "/checkout/paypal/cancel", Methods: []string{"GET"}, Handler: PayPalCancel},

		// Checkout sessions
		{Path: "/checkout/{session}", Methods: []string{"GET", "HEAD"}, Handler: GetCheckoutPage},
		{Path: "/checkout/{session}/complete", Methods: []string{"POST"}, Handler: CompleteCheckout},
		{Path: "/checkout/{session}/approved", Methods: []string{"POST"}, Handler: ApproveCheckout},
		{Path: "/checkout/{session}/failed", Methods: []string{"POST"}, Handler: FailCheckout},
		{Path: "/checkout/{session}/dismissed", Methods: []string{"POST"}, Handler: DismissCheckout},
	}
}
