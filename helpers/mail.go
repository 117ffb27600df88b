package helpers

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

type EmailData struct {
	EmailTo      string
	NameTo       string
	EmailFrom    string
	NameFrom     string
	Subject      string
	TemplatePath string
	Template     *template.Template
	FileName     string
	FileContent  []byte
	SMTP         *gomail.Dialer
}

// Message renders the mail. TemplatePath wins over Template when both are set.
func (ed *EmailData) Message(data interface{}) (*gomail.Message, error) {
	t := ed.Template
	if ed.TemplatePath != "" {
		parsed, err := template.ParseFiles(ed.TemplatePath)
		if err != nil {
			return nil, err
		}
		t = parsed
	}
	if t == nil {
		return nil, errors.New("email without template")
	}

	var tpl bytes.Buffer
	if err := t.Execute(&tpl, data); err != nil {
		return nil, err
	}

	m := gomail.NewMessage()

	if ed.FileContent != nil {
		m.Attach(ed.FileName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(ed.FileContent)
			return err
		}))
	}

	m.SetHeader("From", m.FormatAddress(ed.EmailFrom, ed.NameFrom))
	m.SetHeader("To", m.FormatAddress(ed.EmailTo, ed.NameTo))
	m.SetHeader("Subject", ed.Subject)
	m.SetBody("text/html", tpl.String())
	return m, nil
}

func (ed *EmailData) SendEmail(data interface{}) error {
	if ed.SMTP == nil {
		return errors.New("no SMTP dialer configured")
	}
	m, err := ed.Message(data)
	if err != nil {
		return err
	}
	return ed.SMTP.DialAndSend(m)
}

var supportAlertTemplate = template.Must(template.New("support-alert").Parse(`{{if .TransactionID}}<h2>Payment captured but not recorded</h2>
<p>The gateway took this payment but the academy ledger did not record it. Do not ask the payer to pay again.</p>
{{else}}<h2>Payment capture not confirmed</h2>
<p>The payer approved order {{.OrderID}} but the capture could not be confirmed. Check the order with the gateway before asking the payer to pay again.</p>
{{end}}
<table>
<tr><td>Journal id</td><td>{{.ID}}</td></tr>
<tr><td>Method</td><td>{{.Method}}</td></tr>
<tr><td>Transaction id</td><td>{{.TransactionID}}</td></tr>
<tr><td>Order id</td><td>{{.OrderID}}</td></tr>
<tr><td>Amount</td><td>{{.Amount}} {{.Currency}}</td></tr>
{{if .BookingID}}<tr><td>Booking</td><td>{{.BookingID}}</td></tr>{{end}}
{{if .CoachingID}}<tr><td>Coaching</td><td>{{.CoachingID}}</td></tr>{{end}}
<tr><td>Payer</td><td>{{.Email}}</td></tr>
<tr><td>Last error</td><td>{{.LastError}}</td></tr>
</table>
{{if .TransactionID}}<p>Replay it with: academypay journal retry --id {{.ID}}</p>{{end}}
`))

// SupportAlert mails support about captures that need a human.
type SupportAlert struct {
	SMTP      *gomail.Dialer
	EmailFrom string
	NameFrom  string
	EmailTo   string
}

func (s *SupportAlert) email(entry *models.JournalEntry) *EmailData {
	return &EmailData{
		EmailTo:   s.EmailTo,
		NameTo:    "Support",
		EmailFrom: s.EmailFrom,
		NameFrom:  s.NameFrom,
		Subject:   s.subject(entry),
		Template:  supportAlertTemplate,
		SMTP:      s.SMTP,
	}
}

func (s *SupportAlert) subject(entry *models.JournalEntry) string {
	if entry.TransactionID == "" {
		return fmt.Sprintf("[payments] unconfirmed %s capture for order %s", entry.Method, entry.OrderID)
	}
	return fmt.Sprintf("[payments] unrecorded %s capture %s", entry.Method, entry.TransactionID)
}

func (s *SupportAlert) CaptureUnrecorded(entry *models.JournalEntry) error {
	if err := s.email(entry).SendEmail(entry); err != nil {
		return errors.Wrapf(err, "failed sending support alert for %s", entry.Key())
	}
	return nil
}
