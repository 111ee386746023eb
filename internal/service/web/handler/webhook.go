package handler

import (
	"io/ioutil"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	"github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/cloud"
	"github.com/solutions/interview-cube/internal/service/db"
)

// UserSyncInterface 身份同步需要的用户存储操作。
type UserSyncInterface interface {
	UpsertUser(xl *xlog.Logger, subjectID, email, name, avatar, impliedRole string) (*model.UserDo, error)
}

// WebhookApiHandler 处理身份服务的webhook回调。该接口由身份服务直接调用，
// 不走登录态，返回裸HTTP状态码：签名不过为400，落库失败为500，500触发
// 身份服务侧重试。
type WebhookApiHandler struct {
	Verifier *cloud.WebhookVerifier
	Users    UserSyncInterface
	IM       cloud.IMService
}

func NewWebhookApiHandler(conf utils.Config) *WebhookApiHandler {
	h := new(WebhookApiHandler)
	var err error
	h.Verifier, err = cloud.NewWebhookVerifier(*conf.Webhook, nil)
	if err != nil {
		panic(err)
	}
	h.Users, err = db.NewUserService(*conf.Mongo, conf.Webhook.DefaultRole, nil)
	if err != nil {
		panic(err)
	}
	h.IM = cloud.NewIMService(conf.IM, nil)
	return h
}

func (h *WebhookApiHandler) HandleIdentityEvent(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	msgID := c.GetHeader(model.WebhookIDHeader)
	timestamp := c.GetHeader(model.WebhookTimestampHeader)
	signature := c.GetHeader(model.WebhookSignatureHeader)
	if msgID == "" || timestamp == "" || signature == "" {
		xl.Infof("webhook request missing svix headers")
		c.String(http.StatusBadRequest, "missing svix headers")
		return
	}
	body, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		xl.Errorf("failed to read webhook body, error %v", err)
		c.String(http.StatusBadRequest, "failed to read body")
		return
	}
	if err := h.Verifier.Verify(xl, msgID, timestamp, signature, body); err != nil {
		c.String(http.StatusBadRequest, "invalid signature")
		return
	}

	event := cloud.ParseIdentityEvent(body)
	var impliedRole string
	switch event.Type {
	case cloud.EventUserCreated:
		impliedRole = string(model.UserRoleCandidate)
	case cloud.EventUserUpdated:
		impliedRole = string(model.UserRoleInterviewer)
	default:
		// deleted等其余事件只确认接收。
		xl.Debugf("ignoring webhook event type %s", event.Type)
		c.String(http.StatusOK, "webhook processed")
		return
	}
	if event.Subject == "" {
		xl.Infof("webhook event %s has no subject id", msgID)
		c.String(http.StatusBadRequest, "missing subject id")
		return
	}

	user, err := h.Users.UpsertUser(xl, event.Subject, event.Email, event.Name, event.Avatar, impliedRole)
	if err != nil {
		xl.Errorf("failed to sync user %s, error %v", event.Subject, err)
		c.String(http.StatusInternalServerError, "failed to sync user")
		return
	}
	// IM注册失败不影响同步结果，身份服务不应因此重试。
	if h.IM != nil {
		if _, imErr := h.IM.RegisterUser(xl, user.ID, user.Name, user.Avatar); imErr != nil {
			xl.Errorf("failed to register IM user %s, error %v", user.ID, imErr)
		}
	}
	c.String(http.StatusOK, "webhook processed")
}
