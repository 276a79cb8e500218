package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func alertLead() (*entity.Lead, *entity.Contact) {
	lead := &entity.Lead{
		ID:          "l-1",
		FunnelType:  "gold-ira",
		SiteKey:     "main",
		UTMSource:   "google",
		QuizAnswers: entity.QuizAnswers{"allocation_amount": "50k", "timeframe": "asap"},
	}
	contact := &entity.Contact{ID: "c-1", Email: "a@x.com", Phone: "+15551234567", FirstName: "Jane", LastName: "Doe"}
	return lead, contact
}

func TestSalesAlertSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := NewSalesAlertSenderWithDialer(d, "leads@example.com", []string{"sales@example.com"})
	lead, contact := alertLead()

	require.NoError(t, s.Send(context.Background(), lead, contact))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"New lead: Jane Doe (gold-ira)"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"sales@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"a@x.com"}, m.GetHeader("Reply-To"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Jane Doe")
	assert.Contains(t, buf.String(), "50000")
	assert.Contains(t, buf.String(), "timeframe")
}

func TestSalesAlertSender_SMTPFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("535 auth failed")}
	s := NewSalesAlertSenderWithDialer(d, "leads@example.com", []string{"sales@example.com"})
	lead, contact := alertLead()

	err := s.Send(context.Background(), lead, contact)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales_email")
	assert.Contains(t, err.Error(), "535 auth failed")
}

func TestSalesAlertSender_ExpiredContext(t *testing.T) {
	d := &fakeDialer{}
	s := NewSalesAlertSenderWithDialer(d, "leads@example.com", []string{"sales@example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lead, contact := alertLead()

	assert.Error(t, s.Send(ctx, lead, contact))
	assert.Empty(t, d.sent)
}

func TestNewSalesAlertSender_Unconfigured(t *testing.T) {
	assert.Nil(t, NewSalesAlertSender("", 587, "", "", "from@example.com", []string{"to@example.com"}))
	assert.Nil(t, NewSalesAlertSender("smtp.example.com", 587, "", "", "from@example.com", nil))
}
