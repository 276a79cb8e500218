package entity

import "time"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// DeliveryAttempt is the outcome of one send to one sink. Attempts are not
// retried and not persisted.
type DeliveryAttempt struct {
	Sink       string        `json:"sink"`
	Outcome    string        `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

type DeliveryReport struct {
	LeadID   string            `json:"lead_id,omitempty"`
	Event    string            `json:"event,omitempty"`
	Attempts []DeliveryAttempt `json:"attempts"`
}

func (r DeliveryReport) Failed() []DeliveryAttempt {
	var out []DeliveryAttempt
	for _, a := range r.Attempts {
		if a.Outcome == OutcomeFailure {
			out = append(out, a)
		}
	}
	return out
}

func (r DeliveryReport) AllSucceeded() bool {
	return len(r.Failed()) == 0
}
