package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	goerrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	"github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/cloud"
)

var webhookTestSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeUserStore struct {
	users       map[string]*model.UserDo
	defaultRole string
	failing     bool
	calls       int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.UserDo{}, defaultRole: "candidate"}
}

func (s *fakeUserStore) UpsertUser(xl *xlog.Logger, subjectID, email, name, avatar, impliedRole string) (*model.UserDo, error) {
	s.calls++
	if s.failing {
		return nil, goerrors.New("mongo down")
	}
	existing, exists := s.users[subjectID]
	user := &model.UserDo{
		ID:     subjectID,
		Email:  email,
		Name:   name,
		Avatar: avatar,
		Role:   model.UpsertRole(exists, impliedRole, s.defaultRole),
	}
	if exists {
		user.RegisterTime = existing.RegisterTime
	} else {
		user.RegisterTime = time.Now()
	}
	s.users[subjectID] = user
	return user, nil
}

func newWebhookTestServer(t *testing.T, users *fakeUserStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	verifier, err := cloud.NewWebhookVerifier(utils.WebhookConfig{
		Secret: "whsec_" + base64.StdEncoding.EncodeToString(webhookTestSecret),
	}, nil)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	h := &WebhookApiHandler{
		Verifier: verifier,
		Users:    users,
		IM:       cloud.NewIMService(nil, nil),
	}
	r := gin.New()
	r.POST("/clerk-webhook", func(c *gin.Context) {
		c.Set(model.XLogKey, xlog.New("webhook-test"))
	}, h.HandleIdentityEvent)
	return r
}

func signedWebhookRequest(msgID string, body []byte) *http.Request {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, webhookTestSecret)
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", msgID, timestamp, body)))
	signature := "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/clerk-webhook", bytes.NewReader(body))
	req.Header.Set(model.WebhookIDHeader, msgID)
	req.Header.Set(model.WebhookTimestampHeader, timestamp)
	req.Header.Set(model.WebhookSignatureHeader, signature)
	return req
}

func userCreatedBody(subjectID string) []byte {
	return []byte(fmt.Sprintf(`{"type":"user.created","data":{"id":%q,"email_addresses":[{"email_address":"a@example.com"}],"first_name":"San","last_name":"Zhang"}}`, subjectID))
}

func TestWebhookMissingHeaders(t *testing.T) {
	users := newFakeUserStore()
	r := newWebhookTestServer(t, users)
	req := httptest.NewRequest(http.MethodPost, "/clerk-webhook", bytes.NewReader(userCreatedBody("user_1")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expect 400 for missing headers, got %d", w.Code)
	}
	if users.calls != 0 {
		t.Error("expect no user mutation on rejected request")
	}
}

func TestWebhookBadSignature(t *testing.T) {
	users := newFakeUserStore()
	r := newWebhookTestServer(t, users)
	req := signedWebhookRequest("msg_1", userCreatedBody("user_1"))
	req.Header.Set(model.WebhookSignatureHeader, "v1,bm90LXRoZS1yaWdodC1zaWc=")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expect 400 for bad signature, got %d", w.Code)
	}
	if users.calls != 0 {
		t.Error("expect no user mutation on bad signature")
	}
}

func TestWebhookUserCreated(t *testing.T) {
	users := newFakeUserStore()
	r := newWebhookTestServer(t, users)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedWebhookRequest("msg_1", userCreatedBody("user_1")))
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d", w.Code)
	}
	user := users.users["user_1"]
	if user == nil {
		t.Fatal("expect user stored")
	}
	if user.Role != "candidate" {
		t.Errorf("expect default role candidate on first sync, got %s", user.Role)
	}
	if user.Email != "a@example.com" || user.Name != "San Zhang" {
		t.Errorf("unexpected profile %+v", user)
	}
}

func TestWebhookUpdatedForUnseenUser(t *testing.T) {
	users := newFakeUserStore()
	r := newWebhookTestServer(t, users)
	body := []byte(`{"type":"user.updated","data":{"id":"user_2","email_addresses":[{"email_address":"b@example.com"}]}}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedWebhookRequest("msg_2", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d", w.Code)
	}
	// 未见过的用户即使来自updated事件，首次入库仍取默认角色。
	if role := users.users["user_2"].Role; role != "candidate" {
		t.Errorf("expect default role on insert, got %s", role)
	}
}

func TestWebhookUpdatedForExistingUser(t *testing.T) {
	users := newFakeUserStore()
	r := newWebhookTestServer(t, users)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedWebhookRequest("msg_1", userCreatedBody("user_3")))
	body := []byte(`{"type":"user.updated","data":{"id":"user_3","email_addresses":[{"email_address":"a@example.com"}]}}`)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, signedWebhookRequest("msg_2", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d", w.Code)
	}
	if role := users.users["user_3"].Role; role != "interviewer" {
		t.Errorf("expect updated event to promote existing user to interviewer, got %s", role)
	}
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	users := newFakeUserStore()
	r := newWebhookTestServer(t, users)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedWebhookRequest("msg_1", userCreatedBody("user_4")))
		if w.Code != http.StatusOK {
			t.Fatalf("expect 200 on delivery %d, got %d", i, w.Code)
		}
	}
	if len(users.users) != 1 {
		t.Errorf("expect a single stored user, got %d", len(users.users))
	}
}

func TestWebhookDeletedIsAcknowledged(t *testing.T) {
	users := newFakeUserStore()
	r := newWebhookTestServer(t, users)
	body := []byte(`{"type":"user.deleted","data":{"id":"user_5"}}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedWebhookRequest("msg_1", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200 for deleted event, got %d", w.Code)
	}
	if users.calls != 0 {
		t.Error("expect deleted event not to touch storage")
	}
}

func TestWebhookStorageFailure(t *testing.T) {
	users := newFakeUserStore()
	users.failing = true
	r := newWebhookTestServer(t, users)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedWebhookRequest("msg_1", userCreatedBody("user_6")))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expect 500 on storage failure, got %d", w.Code)
	}
}
