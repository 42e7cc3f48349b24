package mailer

import (
	"consultly/src/lib"
	"encoding/json"
	"fmt"
	"os"
)

// NewMailerMessage hands an email off for delivery. Local environments send
// over SMTP directly; everywhere else the message goes to the email queue and
// a worker owns delivery.
func NewMailerMessage(input *lib.SendMailInput) error {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		return lib.SendMail(input)
	}
	emailQueue := os.Getenv("EMAIL_QUEUE")
	emailBody := map[string]any{
		"from":      input.From,
		"from-name": input.FromName,
		"to":        input.To,
		"body":      input.Body,
		"html":      input.Html,
		"subject":   input.Subject,
	}
	body, err := json.Marshal(&emailBody)
	if err != nil {
		return err
	}
	if err := lib.SQSProduceMessage(emailQueue, string(body)); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}
