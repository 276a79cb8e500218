package mail

import "gopkg.in/gomail.v2"

type SalesAlertData struct {
	LeadID     string
	Name       string
	Email      string
	Phone      string
	FunnelType string
	SiteKey    string
	Allocation string
	Source     string
	Campaign   string
	Answers    []AnswerRow
}

type AnswerRow struct {
	Question string
	Answer   string
}

// Dialer is the part of *gomail.Dialer the sender uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SalesAlertSender struct {
	dialer Dialer
	from   string
	to     []string
}
