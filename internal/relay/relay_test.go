package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shatami1/Comcare/internal/config"
)

func sampleMessage() Message {
	return Message{
		Subject:  "New Contact Form Submission: Hello",
		Title:    "New Contact Message",
		Icon:     "📬",
		Subtitle: "From: Jane",
		Summary:  "New Contact Message from ComfortCare",
		Fields: []Field{
			{Name: "Name", Value: "Jane <Doe>"},
			{Name: "Email", Value: "jane@example.com"},
		},
		Section:     &Field{Name: "Message", Value: "line one\nline & two"},
		Trailer:     []Field{{Name: "Subscribe to Updates", Value: "Yes"}},
		SubmittedAt: time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC),
	}
}

func TestRenderHTMLEscapesAndBreaksLines(t *testing.T) {
	body := RenderHTML(sampleMessage())
	wants := []string{
		"<h3>New Contact Message</h3>",
		"<p><strong>Name:</strong> Jane &lt;Doe&gt;</p>",
		"<p>line one<br>line &amp; two</p>",
		"<p><strong>Subscribe to Updates:</strong> Yes</p>",
		"Submitted at: Mar 1, 2024, 3:04:05 PM",
	}
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Fatalf("html body missing %q:\n%s", want, body)
		}
	}
}

func TestBuildEmailMessageUsesHTMLContentType(t *testing.T) {
	msg := buildEmailMessage("shop@example.com", "staff@example.com", "Subject", "<p>x</p>")
	if !strings.Contains(msg, "Content-Type: text/html; charset=UTF-8\r\n") {
		t.Fatalf("expected html content type: %s", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\n<p>x</p>") {
		t.Fatalf("unexpected body: %q", msg)
	}
}

func TestSMTPChannelRequiresConfiguration(t *testing.T) {
	ch := NewSMTPChannel(config.EmailConfig{})
	if err := ch.Send(context.Background(), sampleMessage()); !errors.Is(err, ErrChannelNotConfigured) {
		t.Fatalf("want ErrChannelNotConfigured got %v", err)
	}
	ch = NewSMTPChannel(config.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "shop@example.com", To: "not-an-address"})
	if err := ch.Send(context.Background(), sampleMessage()); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("want ErrInvalidRecipient got %v", err)
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	if normalizeEmailSendError(nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
	err := normalizeEmailSendError(errors.New("550 5.1.1 User unknown"))
	if !errors.Is(err, ErrRecipientRejected) {
		t.Fatalf("want ErrRecipientRejected got %v", err)
	}
	err = normalizeEmailSendError(errors.New("dial tcp: connection refused"))
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("want ErrDeliveryFailed got %v", err)
	}
}

func TestTelegramChannelSend(t *testing.T) {
	var got telegramSendRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ch := NewTelegramChannel(config.TelegramConfig{BotToken: "123:abc", ChatID: "42", APIBaseURL: srv.URL}, srv.Client())
	if err := ch.Send(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path: %s", path)
	}
	if got.ChatID != "42" || got.ParseMode != "HTML" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if !strings.HasPrefix(got.Text, "📬 <b>New Contact Message</b>") {
		t.Fatalf("unexpected text: %s", got.Text)
	}
	if !strings.Contains(got.Text, "<b>Name:</b> Jane &lt;Doe&gt;") {
		t.Fatalf("name should be escaped: %s", got.Text)
	}
}

func TestTelegramChannelRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	ch := NewTelegramChannel(config.TelegramConfig{BotToken: "t", ChatID: "c", APIBaseURL: srv.URL}, srv.Client())
	err := ch.Send(context.Background(), sampleMessage())
	if !errors.Is(err, ErrDeliveryFailed) || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := NewTelegramChannel(config.TelegramConfig{}, nil).Send(context.Background(), sampleMessage()); !errors.Is(err, ErrChannelNotConfigured) {
		t.Fatalf("want ErrChannelNotConfigured got %v", err)
	}
}

func TestTeamsChannelSend(t *testing.T) {
	var card TeamsCard
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&card)
		_, _ = w.Write([]byte("1"))
	}))
	defer srv.Close()

	ch := NewTeamsChannel(config.TeamsConfig{WebhookURL: srv.URL}, srv.Client())
	if err := ch.Send(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if card.Type != "MessageCard" || card.ThemeColor != "0078D4" {
		t.Fatalf("unexpected card header: %+v", card)
	}
	if len(card.Sections) != 2 {
		t.Fatalf("want 2 sections got %d", len(card.Sections))
	}
	facts := card.Sections[0].Facts
	if facts[0].Name != "Name:" || facts[len(facts)-1].Name != "Submitted:" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
	if card.Sections[1].ActivityTitle != "Message" || card.Sections[1].Text != "line one\nline & two" {
		t.Fatalf("unexpected message section: %+v", card.Sections[1])
	}
}

func TestTeamsChannelNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	ch := NewTeamsChannel(config.TeamsConfig{WebhookURL: srv.URL}, srv.Client())
	if err := ch.Send(context.Background(), sampleMessage()); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("want ErrDeliveryFailed got %v", err)
	}
}

func TestNewSelectsChannel(t *testing.T) {
	cases := map[string]string{
		"":         "email",
		"email":    "email",
		"Telegram": "telegram",
		"teams":    "teams",
	}
	for input, want := range cases {
		ch, err := New(config.RelayConfig{Channel: input}, config.EmailConfig{}, nil)
		if err != nil {
			t.Fatalf("channel %q: %v", input, err)
		}
		if ch.Name() != want {
			t.Fatalf("channel %q want %s got %s", input, want, ch.Name())
		}
	}
	if _, err := New(config.RelayConfig{Channel: "fax"}, config.EmailConfig{}, nil); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("want ErrUnknownChannel got %v", err)
	}
}
