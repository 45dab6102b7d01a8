package communication

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/gzizouseif24/xero-automation/payroll"
)

type Slack struct {
	client  *slack.Client
	channel string
}

func NewSlack(token, channel string) *Slack {
	client := slack.New(token)
	return &Slack{client: client, channel: channel}
}

func (s *Slack) postMessage(message string) error {
	_, _, err := s.client.PostMessage(
		s.channel,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

// NotifyRun posts the outcome summary of one submission run.
func (s *Slack) NotifyRun(result payroll.RunResult) error {
	return s.postMessage(FormatRun(result))
}

// FormatRun renders the run summary message.
func FormatRun(result payroll.RunResult) string {
	mode := "real"
	if result.DryRun {
		mode = "dry-run"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Timesheet run %s (%s): %d employees", result.RunID, mode, len(result.Records))
	if created := result.Created(); len(created) > 0 {
		fmt.Fprintf(&b, ", %d created", len(created))
	}

	failed := result.Failed()
	if len(failed) == 0 {
		b.WriteString(", no failures")
		return b.String()
	}

	fmt.Fprintf(&b, ", %d failed:", len(failed))
	for _, rec := range failed {
		fmt.Fprintf(&b, "\n• %s: %s", rec.EmployeeName, strings.Join(rec.Errors, "; "))
	}
	return b.String()
}
