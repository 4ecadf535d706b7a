// Package notifications delivers operator emails for incoming feedback
// documents. Delivery is best effort: the importer logs failures and moves
// on, it never retries notifications.
package notifications

import (
	"fmt"
	"html"

	smtpclient "github.com/fieldstudies/import-backend/pkg/smtp-client"
)

type FeedbackEmailConfig struct {
	To            []string `json:"to" yaml:"to"`
	SubjectPrefix string   `json:"subject_prefix" yaml:"subject_prefix"`
}

type FeedbackEmailNotifier struct {
	smtpClients *smtpclient.SmtpClients
	config      FeedbackEmailConfig
}

func NewFeedbackEmailNotifier(smtpClients *smtpclient.SmtpClients, config FeedbackEmailConfig) *FeedbackEmailNotifier {
	return &FeedbackEmailNotifier{
		smtpClients: smtpClients,
		config:      config,
	}
}

func (n *FeedbackEmailNotifier) NotifyFeedback(subject string, body string) error {
	mailSubject := subject
	if n.config.SubjectPrefix != "" {
		mailSubject = n.config.SubjectPrefix + " " + subject
	}

	content := fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(subject), html.EscapeString(body))
	return n.smtpClients.SendMail(n.config.To, mailSubject, content)
}
