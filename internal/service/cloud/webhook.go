package cloud

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/qiniu/x/xlog"
	"github.com/tidwall/gjson"

	"github.com/solutions/interview-cube/internal/common/utils"
	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
)

const (
	// DefaultWebhookTolerance 签名时间戳允许的默认偏移。
	DefaultWebhookTolerance = 5 * time.Minute

	// 身份服务事件类型。deleted事件仅确认接收，不做用户下线处理。
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// WebhookVerifier 校验身份服务webhook的签名。签名为
// hmac_sha256("{id}.{timestamp}.{body}", secret) 的base64，
// 与 svix-signature 头中空格分隔的 v1,<sig> 列表逐一比对。
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	xl        *xlog.Logger
}

func NewWebhookVerifier(conf utils.WebhookConfig, xl *xlog.Logger) (*WebhookVerifier, error) {
	if xl == nil {
		xl = xlog.New("interview-cube-webhook")
	}
	secret, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(conf.Secret, "whsec_"))
	if err != nil {
		xl.Errorf("failed to decode webhook secret, error %v", err)
		return nil, err
	}
	tolerance := DefaultWebhookTolerance
	if conf.ToleranceSecond > 0 {
		tolerance = time.Duration(conf.ToleranceSecond) * time.Second
	}
	return &WebhookVerifier{
		secret:    secret,
		tolerance: tolerance,
		xl:        xl,
	}, nil
}

// Verify 校验一次webhook投递。失败时返回ServerErrorWebhookBadSignature，
// 调用方不得在失败后处理payload。
func (v *WebhookVerifier) Verify(xl *xlog.Logger, msgID, timestamp, signature string, body []byte) error {
	if xl == nil {
		xl = v.xl
	}
	badSignature := &errors2.ServerError{Code: errors2.ServerErrorWebhookBadSignature}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		xl.Infof("webhook timestamp %q not a unix second", timestamp)
		return badSignature
	}
	offset := time.Since(time.Unix(ts, 0))
	if offset > v.tolerance || offset < -v.tolerance {
		xl.Infof("webhook timestamp %s outside tolerance", timestamp)
		return badSignature
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(msgID))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	for _, part := range strings.Split(signature, " ") {
		versioned := strings.SplitN(part, ",", 2)
		if len(versioned) != 2 || versioned[0] != "v1" {
			continue
		}
		if hmac.Equal([]byte(versioned[1]), []byte(expected)) {
			return nil
		}
	}
	xl.Infof("webhook message %s signature mismatch", msgID)
	return badSignature
}

// IdentityEvent 从webhook payload提取的身份变更事件。
type IdentityEvent struct {
	Type    string
	Subject string
	Email   string
	Name    string
	Avatar  string
}

// ParseIdentityEvent 提取事件字段。邮箱取地址列表的第一项，
// 昵称由first/last name拼接。
func ParseIdentityEvent(body []byte) IdentityEvent {
	doc := gjson.ParseBytes(body)
	name := strings.TrimSpace(doc.Get("data.first_name").String() + " " + doc.Get("data.last_name").String())
	return IdentityEvent{
		Type:    doc.Get("type").String(),
		Subject: doc.Get("data.id").String(),
		Email:   doc.Get("data.email_addresses.0.email_address").String(),
		Name:    name,
		Avatar:  doc.Get("data.image_url").String(),
	}
}
