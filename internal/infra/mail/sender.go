// Package mail notifies the sales inbox about new verified leads.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/phone"
	"github.com/xavierca1/retirement-leads/internal/quiz"
	"github.com/xavierca1/retirement-leads/internal/usecase"
)

const SinkName = "sales_email"

//go:embed templates/*.html
var templates embed.FS

var salesAlertTmpl = template.Must(template.ParseFS(templates, "templates/sales_alert.html"))

// NewSalesAlertSender returns nil when SMTP or recipients are not configured.
func NewSalesAlertSender(host string, port int, user, password, from string, to []string) *SalesAlertSender {
	if host == "" || len(to) == 0 {
		return nil
	}
	return NewSalesAlertSenderWithDialer(gomail.NewDialer(host, port, user, password), from, to)
}

func NewSalesAlertSenderWithDialer(d Dialer, from string, to []string) *SalesAlertSender {
	return &SalesAlertSender{dialer: d, from: from, to: to}
}

func (s *SalesAlertSender) Name() string { return SinkName }

// Send renders and sends the alert. SMTP has no context support, so a
// deadline that has already passed skips the dial.
func (s *SalesAlertSender) Send(ctx context.Context, lead *entity.Lead, contact *entity.Contact) error {
	if err := ctx.Err(); err != nil {
		return &usecase.DeliveryError{Sink: SinkName, Err: err}
	}

	data := buildAlertData(lead, contact)

	var body bytes.Buffer
	if err := salesAlertTmpl.Execute(&body, data); err != nil {
		return &usecase.DeliveryError{Sink: SinkName, Err: eris.Wrap(err, "render template")}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to...)
	m.SetHeader("Subject", fmt.Sprintf("New lead: %s (%s)", data.Name, data.FunnelType))
	if contact.Email != "" {
		m.SetHeader("Reply-To", contact.Email)
	}
	m.SetBody("text/html", body.String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-errCh:
		if err != nil {
			return &usecase.DeliveryError{Sink: SinkName, Err: eris.Wrap(err, "smtp send")}
		}
		return nil
	case <-ctx.Done():
		return &usecase.DeliveryError{Sink: SinkName, Err: ctx.Err()}
	}
}

func buildAlertData(lead *entity.Lead, contact *entity.Contact) SalesAlertData {
	name := contact.FullName()
	if name == "" {
		name = contact.Email
	}
	data := SalesAlertData{
		LeadID:     lead.ID,
		Name:       name,
		Email:      contact.Email,
		Phone:      phone.National(contact.Phone),
		FunnelType: lead.FunnelType,
		SiteKey:    lead.SiteKey,
		Source:     lead.UTMSource,
		Campaign:   lead.UTMCampaign,
	}

	answers, _ := quiz.Decode(lead.FunnelType, lead.QuizAnswers)
	if amount := answers.AllocationAmount(); amount > 0 {
		data.Allocation = strconv.FormatFloat(amount, 'f', 0, 64)
	}

	flat := quiz.Flatten(lead.QuizAnswers, "")
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data.Answers = append(data.Answers, AnswerRow{Question: k, Answer: flat[k]})
	}
	return data
}
