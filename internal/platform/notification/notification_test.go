package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestManager() (*Manager, *MockEmailSender, *MockSMSSender) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	return NewManager(email, sms, NewTemplateEngine()), email, sms
}

func TestTemplateEngine_RenderBuiltIn(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render("appointment-booked", map[string]string{
		"patient_name": "Asha",
		"doctor_name":  "Rao",
		"date":         "2026-09-01",
		"time":         "10:00",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if subject != "Appointment Confirmed" {
		t.Errorf("unexpected subject: %s", subject)
	}
	if !strings.Contains(body, "Asha") || !strings.Contains(body, "Dr. Rao") {
		t.Errorf("expected names substituted, got: %s", body)
	}
}

func TestTemplateEngine_MissingKeysLeftAsIs(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render("outbreak-alert", map[string]string{"disease": "dengue"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(body, "{{region}}") {
		t.Errorf("expected unfilled placeholder preserved, got: %s", body)
	}
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestManager_SendEmail(t *testing.T) {
	mgr, email, _ := newTestManager()

	n := &Notification{Channel: ChannelEmail, Recipient: "asha@example.com", Subject: "hi", Body: "hello"}
	if err := mgr.Send(context.Background(), n); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if n.Status != "sent" || n.SentAt == nil {
		t.Errorf("expected sent status with timestamp, got %s", n.Status)
	}
	if calls := email.Calls(); len(calls) != 1 || calls[0].To != "asha@example.com" {
		t.Errorf("unexpected email calls: %+v", calls)
	}
}

func TestManager_SendFailureRecorded(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Channel: ChannelEmail, Recipient: "x@example.com", Body: "b"}
	if err := mgr.Send(context.Background(), n); err == nil {
		t.Fatal("expected send error")
	}
	if n.Status != "failed" || n.Error != "smtp down" {
		t.Errorf("expected failed status with error, got %s / %s", n.Status, n.Error)
	}

	stored, err := mgr.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("expected failed notification stored: %v", err)
	}
	if stored.Status != "failed" {
		t.Errorf("expected stored failed status, got %s", stored.Status)
	}
}

func TestManager_SendFromTemplateUsesTemplateChannel(t *testing.T) {
	mgr, _, sms := newTestManager()

	n, err := mgr.SendFromTemplate(context.Background(), "resource-alert", map[string]string{
		"hospital":  "District General",
		"resource":  "oxygen",
		"available": "3",
		"threshold": "10",
	}, "+911234567890")
	if err != nil {
		t.Fatalf("send from template failed: %v", err)
	}
	if n.Channel != ChannelSMS {
		t.Errorf("expected sms channel from template, got %s", n.Channel)
	}
	calls := sms.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].Body, "oxygen") {
		t.Errorf("unexpected sms calls: %+v", calls)
	}
}

func TestManager_Retry(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Channel: ChannelEmail, Recipient: "x@example.com", Body: "b"}
	_ = mgr.Send(context.Background(), n)

	email.ShouldFail = false
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	stored, _ := mgr.Get(context.Background(), n.ID)
	if stored.Status != "sent" || stored.Error != "" {
		t.Errorf("expected sent status after retry, got %s / %s", stored.Status, stored.Error)
	}

	// Retrying an already-sent notification is rejected.
	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected error retrying a sent notification")
	}
}

func TestManager_Stats(t *testing.T) {
	mgr, email, _ := newTestManager()

	_ = mgr.Send(context.Background(), &Notification{Channel: ChannelEmail, Recipient: "a@example.com", Body: "x"})
	email.ShouldFail = true
	email.FailError = "down"
	_ = mgr.Send(context.Background(), &Notification{Channel: ChannelEmail, Recipient: "b@example.com", Body: "y"})

	stats := mgr.Stats(context.Background())
	if stats["sent"] != 1 || stats["failed"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestHandler_SendTemplate(t *testing.T) {
	mgr, email, _ := newTestManager()
	h := NewHandler(mgr)

	reqBody := `{"template_id":"welcome","recipient":"asha@example.com","data":{"name":"Asha","actor_type":"patient"}}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/notifications/send-template", strings.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleSendTemplate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var n Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if n.Status != "sent" {
		t.Errorf("expected sent status, got %s", n.Status)
	}
	if calls := email.Calls(); len(calls) != 1 || !strings.Contains(calls[0].Body, "Asha") {
		t.Errorf("unexpected email calls: %+v", calls)
	}
}

func TestHandler_GetNotFound(t *testing.T) {
	mgr, _, _ := newTestManager()
	h := NewHandler(mgr)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notifications/unknown", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("unknown")

	if err := h.HandleGet(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
