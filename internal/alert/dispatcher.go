// Package alert delivers forensic findings by email, with a console
// fallback when no mail credentials are configured, and renders the chart
// attachments.
package alert

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPConfig is the outbound mail configuration. The dispatcher is
// considered configured only when every field is set.
type SMTPConfig struct {
	Server   string
	Port     int
	User     string
	Password string
	Receiver string
}

// Configured reports whether all credentials needed to send are present.
func (c SMTPConfig) Configured() bool {
	return c.Server != "" && c.User != "" && c.Password != "" && c.Receiver != ""
}

// Dispatcher sends alert emails over SMTP with STARTTLS. Alerting is a
// side channel: no Dispatch outcome may fail the batch, so send errors are
// logged and swallowed.
type Dispatcher struct {
	smtp   SMTPConfig
	logger *zap.Logger

	// console receives the simulated-alert block when mail is not
	// configured. Defaults to stdout; tests substitute a buffer.
	console io.Writer

	// send is swapped out in tests to avoid a live SMTP dial.
	send func(m *gomail.Message) error
}

// NewDispatcher creates a dispatcher. A zero SMTPConfig yields a
// console-only dispatcher.
func NewDispatcher(cfg SMTPConfig, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{smtp: cfg, logger: logger, console: os.Stdout}
	d.send = func(m *gomail.Message) error {
		dialer := gomail.NewDialer(cfg.Server, cfg.Port, cfg.User, cfg.Password)
		return dialer.DialAndSend(m)
	}
	return d
}

// SetConsole redirects the simulated-alert block, used by tests and by
// callers embedding the dispatcher under another writer.
func (d *Dispatcher) SetConsole(w io.Writer) {
	d.console = w
}

// Dispatch sends one alert email: subject, plain-text body, and the chart
// image attached when chartPath names an existing file. Without full SMTP
// credentials it prints a labeled simulated-alert block instead. Always
// returns nil: a failed or skipped alert never aborts the run. The caller
// owns chartPath and removes it after dispatch.
func (d *Dispatcher) Dispatch(subject, body, chartPath string) error {
	if !d.smtp.Configured() {
		d.logger.Warn("smtp credentials missing, alert not emailed",
			zap.String("subject", subject))
		fmt.Fprintf(d.console, "--- [SIMULATED ALERT] ---\n")
		fmt.Fprintf(d.console, "Subject: %s\n", subject)
		fmt.Fprintf(d.console, "Body: %s\n", body)
		fmt.Fprintf(d.console, "Chart: %s\n", chartPath)
		fmt.Fprintf(d.console, "-------------------------\n")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.smtp.User)
	m.SetHeader("To", d.smtp.Receiver)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if chartPath != "" {
		if _, err := os.Stat(chartPath); err == nil {
			m.Attach(chartPath)
			d.logger.Info("chart attached", zap.String("path", chartPath))
		}
	}

	if err := d.send(m); err != nil {
		d.logger.Error("failed to send alert email",
			zap.String("subject", subject),
			zap.String("receiver", d.smtp.Receiver),
			zap.Error(err))
		return nil
	}

	d.logger.Info("alert sent",
		zap.String("subject", subject),
		zap.String("receiver", d.smtp.Receiver))
	return nil
}
