package contact_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/Seednode/matchwheel/contact"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"98200 11223", "919820011223"},
		{"(982) 001-1223", "919820011223"},
		{"09822044556", "919822044556"},
		{"+91 98450 33441", "919845033441"},
		{"+1 415 555 0100", "14155550100"},
		{"12345", "12345"},
		{"", ""},
		{"n/a", ""},
	}

	for _, tt := range tests {
		if got := contact.NormalizePhone(tt.raw, "91"); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizePhone_CountryCode(t *testing.T) {
	if got := contact.NormalizePhone("4155550100", "1"); got != "14155550100" {
		t.Errorf("unexpected number %q", got)
	}
}

func TestWhatsAppURL(t *testing.T) {
	msg := "Hi Bob, I'm Alice from A&B. Let's meet?"

	link, ok := contact.WhatsAppURL("98200 11223", msg, contact.DefaultCountryCode)
	if !ok {
		t.Fatal("expected a link")
	}

	if !strings.HasPrefix(link, "https://api.whatsapp.com/send?phone=919820011223&text=") {
		t.Errorf("unexpected link %q", link)
	}
	if strings.Contains(link, "+") {
		t.Errorf("spaces should be encoded as %%20: %q", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	if got := u.Query().Get("text"); got != msg {
		t.Errorf("text round-tripped to %q, want %q", got, msg)
	}
}

func TestWhatsAppURL_NoPhone(t *testing.T) {
	for _, phone := range []string{"", "   ", "none"} {
		if link, ok := contact.WhatsAppURL(phone, "hi", "91"); ok || link != "" {
			t.Errorf("phone %q: expected no link, got %q", phone, link)
		}
	}
}

func TestGreeting(t *testing.T) {
	got := contact.Greeting("Platina Connector", "Alice", "Crumbs", "Bob")
	want := "Hi Bob, I'm Alice from Crumbs. I matched with you on the Platina Connector wheel! Let's schedule a 1-to-1 meeting."
	if got != want {
		t.Errorf("Greeting = %q, want %q", got, want)
	}

	if got := contact.Greeting("X", "Alice", "", "Bob"); strings.Contains(got, " from ") {
		t.Errorf("expected no company clause, got %q", got)
	}
}
