package cloud

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/solutions/interview-cube/internal/common/utils"
	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
)

var testWebhookSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestVerifier(t *testing.T) *WebhookVerifier {
	t.Helper()
	conf := utils.WebhookConfig{
		Secret: "whsec_" + base64.StdEncoding.EncodeToString(testWebhookSecret),
	}
	verifier, err := NewWebhookVerifier(conf, nil)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return verifier
}

func signPayload(msgID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, testWebhookSecret)
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", msgID, timestamp, body)))
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyValidSignature(t *testing.T) {
	verifier := newTestVerifier(t)
	body := []byte(`{"type":"user.created"}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := signPayload("msg_1", timestamp, body)
	if err := verifier.Verify(nil, "msg_1", timestamp, signature, body); err != nil {
		t.Fatalf("expect valid signature, got %v", err)
	}
}

func TestVerifyMultipleSignatures(t *testing.T) {
	verifier := newTestVerifier(t)
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := "v1,bm90LXRoZS1yaWdodC1zaWc= " + signPayload("msg_2", timestamp, body)
	if err := verifier.Verify(nil, "msg_2", timestamp, signature, body); err != nil {
		t.Fatalf("expect one of the signatures to match, got %v", err)
	}
}

func TestVerifyTamperedBody(t *testing.T) {
	verifier := newTestVerifier(t)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := signPayload("msg_3", timestamp, []byte(`{"role":"candidate"}`))
	err := verifier.Verify(nil, "msg_3", timestamp, signature, []byte(`{"role":"admin"}`))
	if !errors2.IsCode(err, errors2.ServerErrorWebhookBadSignature) {
		t.Fatalf("expect bad signature error, got %v", err)
	}
}

func TestVerifyStaleTimestamp(t *testing.T) {
	verifier := newTestVerifier(t)
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	signature := signPayload("msg_4", timestamp, body)
	err := verifier.Verify(nil, "msg_4", timestamp, signature, body)
	if !errors2.IsCode(err, errors2.ServerErrorWebhookBadSignature) {
		t.Fatalf("expect bad signature error for stale timestamp, got %v", err)
	}
}

func TestVerifyUnknownVersionOnly(t *testing.T) {
	verifier := newTestVerifier(t)
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := "v2" + signPayload("msg_5", timestamp, body)[2:]
	err := verifier.Verify(nil, "msg_5", timestamp, signature, body)
	if !errors2.IsCode(err, errors2.ServerErrorWebhookBadSignature) {
		t.Fatalf("expect bad signature error for unknown version, got %v", err)
	}
}

func TestParseIdentityEvent(t *testing.T) {
	body := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_abc",
			"email_addresses": [{"email_address": "a@example.com"}, {"email_address": "b@example.com"}],
			"first_name": "San",
			"last_name": "Zhang",
			"image_url": "https://img.example.com/a.png"
		}
	}`)
	event := ParseIdentityEvent(body)
	if event.Type != EventUserCreated {
		t.Errorf("expect type user.created, got %s", event.Type)
	}
	if event.Subject != "user_abc" {
		t.Errorf("expect subject user_abc, got %s", event.Subject)
	}
	if event.Email != "a@example.com" {
		t.Errorf("expect first email address, got %s", event.Email)
	}
	if event.Name != "San Zhang" {
		t.Errorf("expect name San Zhang, got %s", event.Name)
	}
	if event.Avatar != "https://img.example.com/a.png" {
		t.Errorf("unexpected avatar %s", event.Avatar)
	}
}

func TestParseIdentityEventMissingNames(t *testing.T) {
	event := ParseIdentityEvent([]byte(`{"type":"user.updated","data":{"id":"user_x"}}`))
	if event.Name != "" {
		t.Errorf("expect empty name, got %q", event.Name)
	}
}
