package mailer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"procure_server/core/port/out"
)

func TestSendBuildsProviderPayload(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody sendRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("unmarshal request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	a := NewSendGridAdapter("sg-test-key", srv.URL)
	err := a.Send(context.Background(), &out.OutboundEmail{
		To:       "vendor@acme.test",
		ToName:   "Acme Sales",
		From:     "sourcing@procureflow.io",
		FromName: "ProcureFlow",
		ReplyTo:  "parse@inbound.procureflow.io",
		Subject:  "Office chairs [rfx-12-7-1700000000000]",
		Text:     "Please see attached RFx request.",
		HTML:     "<p>Please see attached RFx request.</p>",
		Headers:  map[string]string{"X-RFx-ID": "12", "X-Thread-ID": "7"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/v3/mail/send" {
		t.Errorf("path = %q, want /v3/mail/send", gotPath)
	}
	if gotAuth != "Bearer sg-test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if len(gotBody.Personalizations) != 1 {
		t.Fatalf("personalizations = %d, want 1", len(gotBody.Personalizations))
	}
	p := gotBody.Personalizations[0]
	if p.Subject != "Office chairs [rfx-12-7-1700000000000]" {
		t.Errorf("subject = %q", p.Subject)
	}
	if len(p.To) != 1 || p.To[0].Email != "vendor@acme.test" {
		t.Errorf("to = %+v", p.To)
	}
	if len(gotBody.Content) != 2 {
		t.Fatalf("content parts = %d, want 2", len(gotBody.Content))
	}
	if gotBody.Content[0].Type != "text/plain" || gotBody.Content[1].Type != "text/html" {
		t.Errorf("content order = %q, %q", gotBody.Content[0].Type, gotBody.Content[1].Type)
	}
	if gotBody.ReplyTo == nil || gotBody.ReplyTo.Email != "parse@inbound.procureflow.io" {
		t.Errorf("reply_to = %+v", gotBody.ReplyTo)
	}
	if gotBody.Headers["X-RFx-ID"] != "12" {
		t.Errorf("headers = %+v", gotBody.Headers)
	}
}

func TestSendOmitsHTMLPartWhenEmpty(t *testing.T) {
	var gotBody sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	a := NewSendGridAdapter("sg-test-key", srv.URL)
	err := a.Send(context.Background(), &out.OutboundEmail{
		To:      "vendor@acme.test",
		From:    "sourcing@procureflow.io",
		Subject: "Quote",
		Text:    "body",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(gotBody.Content) != 1 || gotBody.Content[0].Type != "text/plain" {
		t.Errorf("content = %+v", gotBody.Content)
	}
	if gotBody.ReplyTo != nil {
		t.Errorf("reply_to should be omitted, got %+v", gotBody.ReplyTo)
	}
}

func TestSendSurfacesProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	a := NewSendGridAdapter("wrong-key", srv.URL)
	err := a.Send(context.Background(), &out.OutboundEmail{
		To:      "vendor@acme.test",
		From:    "sourcing@procureflow.io",
		Subject: "Quote",
		Text:    "body",
	})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}
