package config

import (
	"testing"
	"time"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a@x.com", []string{"a@x.com"}},
		{" a@x.com , ,b@x.com ", []string{"a@x.com", "b@x.com"}},
	}
	for _, test := range tests {
		got := ParseCSV(test.input)
		if len(got) != len(test.want) {
			t.Fatalf("ParseCSV(%q) = %v, want %v", test.input, got, test.want)
		}
		for i := range got {
			if got[i] != test.want[i] {
				t.Errorf("ParseCSV(%q)[%d] = %q, want %q", test.input, i, got[i], test.want[i])
			}
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APPROVER_EMAILS", "compras@hospital.local, finanzas@hospital.local")
	t.Setenv("TICKET_ALLOW_REOPEN", "true")
	t.Setenv("AI_TIMEOUT", "not-a-duration")

	cfg := Load()

	if len(cfg.ApproverEmails) != 2 {
		t.Errorf("ApproverEmails = %v, want 2 entries", cfg.ApproverEmails)
	}
	if !cfg.AllowTicketReopen {
		t.Error("AllowTicketReopen = false, want true")
	}
	if cfg.AITimeout != 30*time.Second {
		t.Errorf("AITimeout = %v, want fallback 30s", cfg.AITimeout)
	}
	if cfg.Port == "" {
		t.Error("Port should default to a non-empty value")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	want := "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
