package alert

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

func TestDispatchUnconfiguredFallsBackToConsole(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
	}{
		{name: "nothing configured", cfg: SMTPConfig{}},
		{name: "missing password", cfg: SMTPConfig{Server: "smtp.example.com", Port: 587, User: "u", Receiver: "r@example.com"}},
		{name: "missing receiver", cfg: SMTPConfig{Server: "smtp.example.com", Port: 587, User: "u", Password: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(tt.cfg, zap.NewNop())
			var buf bytes.Buffer
			d.SetConsole(&buf)

			if err := d.Dispatch("Alertas Forenses CFDI", "cuerpo del mensaje", "chart.png"); err != nil {
				t.Fatalf("unconfigured dispatch must not fail: %v", err)
			}

			out := buf.String()
			for _, want := range []string{"[SIMULATED ALERT]", "Subject: Alertas Forenses CFDI", "Body: cuerpo del mensaje", "Chart: chart.png"} {
				if !strings.Contains(out, want) {
					t.Errorf("console block missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestDispatchConfiguredSends(t *testing.T) {
	cfg := SMTPConfig{Server: "smtp.example.com", Port: 587, User: "u@example.com", Password: "p", Receiver: "r@example.com"}
	d := NewDispatcher(cfg, zap.NewNop())

	var sent *gomail.Message
	d.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	if err := d.Dispatch("subject", "body", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent == nil {
		t.Fatalf("expected a message to be sent")
	}
	if got := sent.GetHeader("To"); len(got) != 1 || got[0] != "r@example.com" {
		t.Errorf("unexpected To header: %v", got)
	}
	if got := sent.GetHeader("Subject"); len(got) != 1 || got[0] != "subject" {
		t.Errorf("unexpected Subject header: %v", got)
	}
}

func TestDispatchSendFailureIsSwallowed(t *testing.T) {
	cfg := SMTPConfig{Server: "smtp.example.com", Port: 587, User: "u", Password: "p", Receiver: "r@example.com"}
	d := NewDispatcher(cfg, zap.NewNop())
	d.send = func(m *gomail.Message) error {
		return fmt.Errorf("connection refused")
	}

	if err := d.Dispatch("subject", "body", ""); err != nil {
		t.Errorf("send failure must not propagate, got %v", err)
	}
}

func TestRenderBarChart(t *testing.T) {
	// Render into a temp working directory so the test leaves no files.
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	path, err := RenderBarChart("Tendencia de Facturas Canceladas", "alerta_cancelaciones.png",
		[]string{"2025-12", "2026-01"}, []float64{10, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(path) != "alerta_cancelaciones.png" {
		t.Errorf("unexpected chart path %q", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("chart file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("chart file is empty")
	}
}

func TestRenderBarChartRejectsBadSeries(t *testing.T) {
	tests := []struct {
		name   string
		months []string
		values []float64
	}{
		{name: "empty series"},
		{name: "mismatched lengths", months: []string{"2026-01"}, values: []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RenderBarChart("t", "f.png", tt.months, tt.values); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}
