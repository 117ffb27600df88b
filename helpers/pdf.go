package helpers

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

type RequestPdf struct {
	bodies []string
}

func (r *RequestPdf) ParseTemplate(t *template.Template, data interface{}) error {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return err
	}
	r.bodies = append(r.bodies, buf.String())
	return nil
}

const (
	ConstHTMLNewPage = `
	<div class="new-page"></div>
	`
)

func (r *RequestPdf) HTML() []byte {
	return []byte(strings.Join(r.bodies, ConstHTMLNewPage))
}

// GeneratePDF needs the wkhtmltopdf binary on PATH.
func (r *RequestPdf) GeneratePDF() (*bytes.Buffer, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, err
	}

	pdfg.AddPage(wkhtmltopdf.NewPageReader(bytes.NewReader(r.HTML())))

	err = pdfg.Create()
	if err != nil {
		return nil, err
	}

	return pdfg.Buffer(), nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Payment receipt</title></head>
<body>
<h1>{{.Academy}}</h1>
<h2>{{if .Success}}Payment receipt{{else}}Payment pending review{{end}}</h2>
<table>
<tr><td>Date</td><td>{{.Date}}</td></tr>
<tr><td>For</td><td>{{.Subject}}</td></tr>
<tr><td>Method</td><td>{{.Method}}</td></tr>
<tr><td>Amount</td><td>{{.Amount}} {{.Currency}}</td></tr>
{{if .TransactionID}}<tr><td>Transaction</td><td>{{.TransactionID}}</td></tr>{{end}}
{{if .Reference}}<tr><td>Reference</td><td>{{.Reference}}</td></tr>{{end}}
</table>
{{if .Instructions}}<p>{{.Instructions}}</p>{{end}}
<p>{{.Message}}</p>
{{if .Image}}<img src="data:image/png;base64,{{.Image}}" alt="{{.Code}}">{{end}}
</body>
</html>
`))

type ReceiptHTML struct {
	Academy       string
	Success       bool
	Date          string
	Subject       string
	Method        models.MethodKey
	Amount        string
	Currency      string
	TransactionID string
	Reference     string
	Instructions  string
	Message       string
	Code          string
	Image         template.URL
}

// Receipt renders the receipt of an outcome. The QR code carries the
// transaction id, or the offline reference for cash.
func Receipt(academy, subject string, outcome *models.PaymentOutcome, issued time.Time) (*RequestPdf, error) {
	code := outcome.TransactionID
	if code == "" {
		code = outcome.Reference
	}

	data := ReceiptHTML{
		Academy:       academy,
		Success:       outcome.Success,
		Date:          issued.Format("02-01-2006 15:04"),
		Subject:       subject,
		Method:        outcome.Method,
		Amount:        formatOrRaw(outcome.Amount, outcome.Currency),
		Currency:      outcome.Currency,
		TransactionID: outcome.TransactionID,
		Reference:     outcome.Reference,
		Instructions:  outcome.Instructions,
		Message:       outcome.Message,
		Code:          code,
	}

	if code != "" {
		img, err := qrcode.New(code, qrcode.Medium)
		if err != nil {
			return nil, err
		}
		encoded, err := EncodeImage(img.Image(256))
		if err != nil {
			return nil, err
		}
		data.Image = template.URL(encoded)
	}

	r := &RequestPdf{}
	if err := r.ParseTemplate(receiptTemplate, data); err != nil {
		return nil, err
	}
	return r, nil
}

func formatOrRaw(amount decimal.Decimal, currency string) string {
	if s, err := FormatAmount(amount, currency); err == nil {
		return s
	}
	return amount.String()
}

func EncodeImage(m image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
