package razorpay

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("razorpay").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} checkout</title>
<script src="{{.ScriptURL}}"></script>
</head>
<body>
<p id="status">Opening secure checkout...</p>
<script>
var callbackURL = {{.CallbackURL}};
function report(kind, body) {
	return fetch(callbackURL + "/" + kind, {
		method: "POST",
		headers: {"Content-Type": "application/json"},
		body: JSON.stringify(body || {})
	}).then(function() {
		document.getElementById("status").textContent = "You can close this window.";
	});
}
var checkout = new Razorpay({
	key: {{.KeyID}},
	amount: {{.Amount}},
	currency: {{.Currency}},
	order_id: {{.OrderID}},
	name: {{.Name}},
	description: {{.Description}},
	prefill: {email: {{.Email}}},
	handler: function(response) { report("complete", response); },
	modal: {ondismiss: function() { report("dismissed"); }}
});
checkout.on("payment.failed", function(response) {
	var e = response.error || {};
	report("failed", {code: e.code || "", description: e.description || "", reason: e.reason || ""});
});
checkout.open();
</script>
</body>
</html>
`))

type pageData struct {
	ScriptURL   string
	CallbackURL string
	KeyID       string
	Amount      int64
	Currency    string
	OrderID     string
	Name        string
	Description string
	Email       string
}

func renderPage(data *pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
