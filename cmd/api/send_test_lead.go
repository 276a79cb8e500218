package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/phone"
)

var (
	testLeadEmail string
	testLeadPhone string
	testLeadName  string
)

// sendTestLeadCmd pushes a synthetic lead through the configured sinks
// without touching the database. Useful when wiring a new CRM webhook.
var sendTestLeadCmd = &cobra.Command{
	Use:   "send-test-lead",
	Short: "Deliver a synthetic lead to every configured sink",
	RunE: func(cmd *cobra.Command, args []string) error {
		e164, err := phone.Normalize(testLeadPhone, cfg.Site.PhoneRegion)
		if err != nil {
			return eris.Wrap(err, "normalize test phone")
		}

		contact := entity.NewContact(testLeadEmail, e164, phone.Hash(e164), testLeadName, "Test")
		lead := entity.NewLead(contact.ID, "test-"+contact.ID)
		lead.SiteKey = cfg.Site.DefaultKey
		lead.FunnelType = cfg.Site.DefaultFunnel
		lead.UTMSource = "internal"
		lead.UTMMedium = "test"
		lead.QuizAnswers = entity.QuizAnswers{
			"age_range":         "55-64",
			"retirement_status": "planning",
			"allocation_amount": "$250,000 - $500,000",
		}
		lead.MarkVerified(time.Now())

		fanout := buildFanout(cfg, nil)
		if len(fanout.Names()) == 0 {
			return eris.New("no delivery sinks configured")
		}

		report := fanout.Deliver(cmd.Context(), lead, contact)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "encode report")
		}

		if failed := report.Failed(); len(failed) > 0 {
			return eris.Errorf("%d sink(s) failed", len(failed))
		}
		return nil
	},
}

func init() {
	sendTestLeadCmd.Flags().StringVar(&testLeadEmail, "email", "test.lead@example.com", "contact email")
	sendTestLeadCmd.Flags().StringVar(&testLeadPhone, "phone", "+1 555 010 9999", "contact phone")
	sendTestLeadCmd.Flags().StringVar(&testLeadName, "first-name", "Integration", "contact first name")
	rootCmd.AddCommand(sendTestLeadCmd)
}
