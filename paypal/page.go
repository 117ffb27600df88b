package paypal

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("paypal").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} checkout</title>
<script src="{{.ScriptURL}}"></script>
</head>
<body>
<p>{{.Description}} {{.Amount}} {{.Currency}}</p>
<div id="paypal-button-container"></div>
<p id="status"></p>
<script>
var callbackURL = {{.CallbackURL}};
var orderID = {{.OrderID}};
function report(kind, body) {
	return fetch(callbackURL + "/" + kind, {
		method: "POST",
		headers: {"Content-Type": "application/json"},
		body: JSON.stringify(body || {})
	}).then(function() {
		document.getElementById("status").textContent = "You can close this window.";
	});
}
paypal.Buttons({
	createOrder: function() { return orderID; },
	onApprove: function(data) { return report("approved", {orderID: data.orderID, payerID: data.payerID || ""}); },
	onCancel: function() { return report("dismissed"); },
	onError: function(err) { return report("failed", {code: "PAYPAL_ERROR", description: String(err)}); }
}).render("#paypal-button-container");
</script>
</body>
</html>
`))

type pageData struct {
	ScriptURL   string
	CallbackURL string
	OrderID     string
	Amount      string
	Currency    string
	Name        string
	Description string
}

func renderPage(data *pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
