package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"fintrack/internal/amqp"
)

// Mailer delivers one rendered alert.
type Mailer interface {
	Send(alert *amqp.BudgetAlert) error
}

// Deliverer adapts a Mailer into a queue handler. Delivery is best-effort:
// a failed send is logged and the message is acked anyway, so one bad
// recipient can never wedge the queue in a redelivery loop.
type Deliverer struct {
	mailer Mailer
}

func NewDeliverer(mailer Mailer) *Deliverer {
	return &Deliverer{mailer: mailer}
}

func (d *Deliverer) Handle(alert *amqp.BudgetAlert) error {
	if err := d.mailer.Send(alert); err != nil {
		slog.Error("alert delivery failed, dropping",
			"recipient", alert.Recipient, "subject", alert.Subject, "error", err)
		return nil
	}
	slog.Info("alert delivered", "recipient", alert.Recipient, "subject", alert.Subject)
	return nil
}

// SMTPMailer delivers alerts over a plain SMTP relay. Used by the mail
// worker, never by the web process.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

// Send delivers one alert as a plain-text message.
func (m *SMTPMailer) Send(alert *amqp.BudgetAlert) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", alert.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", alert.Subject)
	msg.WriteString("\r\n")
	msg.WriteString(alert.Body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{alert.Recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", alert.Recipient, err)
	}
	return nil
}
