package cloud

import (
	"sync"
	"time"

	"github.com/qiniu/x/xlog"
	rcsdk "github.com/rongcloud/server-sdk-go/v3/sdk"

	"github.com/solutions/interview-cube/internal/common/utils"
	model "github.com/solutions/interview-cube/internal/protodef/model"
)

const (
	// DefaultPortraitURL 用户未同步头像时使用的默认IM头像地址。
	DefaultPortraitURL = "https://developer.rongcloud.cn/static/images/newversion-logo.png"
)

// IMService 为同步下来的用户注册IM账号。注册失败不阻断身份同步，
// 只记录日志，下次同步时重试。
type IMService interface {
	RegisterUser(xl *xlog.Logger, userID, name, portraitURL string) (*model.IMUser, error)
}

// NewIMService 根据配置选择IM实现。provider留空或为test时不做任何注册。
func NewIMService(conf *utils.IMConfig, xl *xlog.Logger) IMService {
	if conf == nil || conf.Provider == "" || conf.Provider == "test" || conf.RongCloud == nil {
		return &noopIMService{}
	}
	return NewRongCloudIMService(*conf.RongCloud, xl)
}

// RongCloudIMService 融云IM控制器，执行IM用户注册。
type RongCloudIMService struct {
	appKey          string
	appSecret       string
	userLock        sync.RWMutex
	userMap         map[string]*model.IMUser
	rongCloudClient *rcsdk.RongCloud
	xl              *xlog.Logger
}

func NewRongCloudIMService(conf utils.RongCloudIMConfig, xl *xlog.Logger) *RongCloudIMService {
	if xl == nil {
		xl = xlog.New("interview-cube-rongcloud-im")
	}
	return &RongCloudIMService{
		appKey:          conf.AppKey,
		appSecret:       conf.AppSecret,
		userMap:         map[string]*model.IMUser{},
		rongCloudClient: rcsdk.NewRongCloud(conf.AppKey, conf.AppSecret),
		xl:              xl,
	}
}

// RegisterUser 用户注册，生成user token并缓存。
func (c *RongCloudIMService) RegisterUser(xl *xlog.Logger, userID, name, portraitURL string) (*model.IMUser, error) {
	if xl == nil {
		xl = c.xl
	}
	if name == "" {
		name = userID
	}
	if portraitURL == "" {
		portraitURL = DefaultPortraitURL
	}
	userRes, err := c.rongCloudClient.UserRegister(userID, name, portraitURL)
	if err != nil {
		xl.Errorf("failed to register user %s on rongcloud, error %v", userID, err)
		return nil, err
	}
	imUser := &model.IMUser{
		UserID:           userRes.UserID,
		Username:         name,
		Token:            userRes.Token,
		LastRegisterTime: time.Now(),
	}
	c.setIMUser(imUser)
	return imUser, nil
}

func (c *RongCloudIMService) setIMUser(user *model.IMUser) {
	if user == nil || user.UserID == "" {
		return
	}
	c.userLock.Lock()
	defer c.userLock.Unlock()
	c.userMap[user.UserID] = user
}

// GetIMUser 查询已注册的IM用户。
func (c *RongCloudIMService) GetIMUser(userID string) (*model.IMUser, bool) {
	c.userLock.RLock()
	defer c.userLock.RUnlock()
	user, ok := c.userMap[userID]
	return user, ok
}

type noopIMService struct{}

func (s *noopIMService) RegisterUser(xl *xlog.Logger, userID, name, portraitURL string) (*model.IMUser, error) {
	return &model.IMUser{UserID: userID, Username: name, LastRegisterTime: time.Now()}, nil
}
