package cloud

import (
	"sort"
	"time"

	qiniuauth "github.com/qiniu/go-sdk/v7/auth"
	qiniurtc "github.com/qiniu/go-sdk/v7/rtc"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
)

const (
	SDKInvokeTimeout = time.Second * 5
	// DefaultRTCRoomTokenTimeout 默认的RTC加入房间用token的过期时间。
	DefaultRTCRoomTokenTimeout = 60 * time.Second
	// RTCPermissionUser 普通参会者权限。
	RTCPermissionUser = "user"
)

// Call 一次视频通话。通话对象由callId推导，不在服务端持久化。
type Call interface {
	ID() string
	// CreatedBy 通话创建者的用户ID，无法确定时为空串。
	CreatedBy() string
	StartedAt() time.Time
	// Join 将用户加入通话，返回接入凭证。
	Join(xl *xlog.Logger, userID string) (string, error)
	// EndCall 结束通话，对所有成员生效。
	EndCall(xl *xlog.Logger) error
	EnableDevice(xl *xlog.Logger, userID string, kind model.DeviceKind) error
	DisableDevice(xl *xlog.Logger, userID string, kind model.DeviceKind) error
	Members(xl *xlog.Logger) ([]string, error)
	Ended(xl *xlog.Logger) bool
}

// CallFilter 通话查询条件。
type CallFilter struct {
	IDs           []string
	Member        string
	StartedAfter  time.Time
	StartedBefore time.Time
}

// CallService 通话基础设施入口。
type CallService interface {
	GetCall(xl *xlog.Logger, callID string) (Call, error)
	// ListCalls 按条件查询通话，按开始时间排序。
	ListCalls(xl *xlog.Logger, filter CallFilter) ([]Call, error)
}

// CallMetaSource 通话的业务侧元信息来源。创建者与排期时间记录在面试记录上，
// callId是两侧唯一的关联键。
type CallMetaSource interface {
	GetInterviewByCallID(xl *xlog.Logger, callID string) (*model.InterviewDo, error)
}

// NewCallService 根据配置选择通话实现。RTC AppID留空时使用内存mock。
func NewCallService(conf utils.Config, meta CallMetaSource, xl *xlog.Logger) CallService {
	if conf.RTC == nil || conf.RTC.AppID == "" {
		return NewMockCallService(meta)
	}
	return NewQiniuCallService(conf, meta, xl)
}

// QiniuCallService 七牛RTC实现。房间名即callId。
type QiniuCallService struct {
	*qiniurtc.Manager
	conf   utils.QiniuRTCConfig
	signer *qiniuauth.Credentials
	meta   CallMetaSource
	xl     *xlog.Logger
}

func NewQiniuCallService(conf utils.Config, meta CallMetaSource, xl *xlog.Logger) *QiniuCallService {
	if xl == nil {
		xl = xlog.New("interview-cube-rtc")
	}
	s := new(QiniuCallService)
	s.conf = *conf.RTC
	s.meta = meta
	s.xl = xl
	s.signer = &qiniuauth.Credentials{
		AccessKey: conf.QiniuKeyPair.AccessKey,
		SecretKey: []byte(conf.QiniuKeyPair.SecretKey),
	}
	s.Manager = qiniurtc.NewManager(s.signer)
	return s
}

func (s *QiniuCallService) GetCall(xl *xlog.Logger, callID string) (Call, error) {
	if xl == nil {
		xl = s.xl
	}
	return &qiniuCall{id: callID, svc: s}, nil
}

func (s *QiniuCallService) ListCalls(xl *xlog.Logger, filter CallFilter) ([]Call, error) {
	if xl == nil {
		xl = s.xl
	}
	// RTC侧没有房间列举接口，只支持按ID查询。
	calls := make([]Call, 0, len(filter.IDs))
	for _, id := range filter.IDs {
		call, err := s.GetCall(xl, id)
		if err != nil {
			return nil, err
		}
		if !matchCall(xl, call, filter) {
			continue
		}
		calls = append(calls, call)
	}
	sortCallsByStart(calls)
	return calls, nil
}

type qiniuCall struct {
	id  string
	svc *QiniuCallService
}

func (c *qiniuCall) ID() string {
	return c.id
}

func (c *qiniuCall) CreatedBy() string {
	interview, err := c.svc.meta.GetInterviewByCallID(nil, c.id)
	if err != nil {
		return ""
	}
	return interview.Creator
}

func (c *qiniuCall) StartedAt() time.Time {
	interview, err := c.svc.meta.GetInterviewByCallID(nil, c.id)
	if err != nil {
		return time.Time{}
	}
	return interview.StartTime
}

func (c *qiniuCall) Join(xl *xlog.Logger, userID string) (string, error) {
	if xl == nil {
		xl = c.svc.xl
	}
	roomTimeout := DefaultRTCRoomTokenTimeout
	if c.svc.conf.RoomTokenExpireSecond > 0 {
		roomTimeout = time.Duration(c.svc.conf.RoomTokenExpireSecond) * time.Second
	}
	roomAccess := qiniurtc.RoomAccess{
		AppID:      c.svc.conf.AppID,
		RoomName:   c.id,
		UserID:     userID,
		ExpireAt:   time.Now().Add(roomTimeout).Unix(),
		Permission: RTCPermissionUser,
	}
	token, err := c.svc.GetRoomToken(roomAccess)
	if err != nil {
		xl.Errorf("failed to generate room token for call %s user %s, error %v", c.id, userID, err)
		return "", &errors2.ServerError{Code: errors2.ServerErrorCallServiceFail}
	}
	return token, nil
}

func (c *qiniuCall) EndCall(xl *xlog.Logger) error {
	if xl == nil {
		xl = c.svc.xl
	}
	members, err := c.Members(xl)
	if err != nil {
		return err
	}
	for _, userID := range members {
		if kickErr := c.svc.KickUser(c.svc.conf.AppID, c.id, userID); kickErr != nil {
			xl.Errorf("failed to kick user %s from call %s, error %v", userID, c.id, kickErr)
			err = &errors2.ServerError{Code: errors2.ServerErrorCallServiceFail}
		}
	}
	return err
}

// EnableDevice / DisableDevice: 媒体轨道的实际开关由客户端SDK执行，
// RTC服务端没有对应接口，这里只记录结果供协商层走完流程。
func (c *qiniuCall) EnableDevice(xl *xlog.Logger, userID string, kind model.DeviceKind) error {
	if xl == nil {
		xl = c.svc.xl
	}
	xl.Debugf("call %s user %s enable %s", c.id, userID, kind)
	return nil
}

func (c *qiniuCall) DisableDevice(xl *xlog.Logger, userID string, kind model.DeviceKind) error {
	if xl == nil {
		xl = c.svc.xl
	}
	xl.Debugf("call %s user %s disable %s", c.id, userID, kind)
	return nil
}

func (c *qiniuCall) Members(xl *xlog.Logger) ([]string, error) {
	if xl == nil {
		xl = c.svc.xl
	}
	users, err := c.svc.ListUser(c.svc.conf.AppID, c.id)
	if err != nil {
		xl.Errorf("failed to list users of call %s, error %v", c.id, err)
		return nil, &errors2.ServerError{Code: errors2.ServerErrorCallServiceFail}
	}
	res := make([]string, 0, len(users))
	for _, u := range users {
		res = append(res, u.UserID)
	}
	return res, nil
}

func (c *qiniuCall) Ended(xl *xlog.Logger) bool {
	members, err := c.Members(xl)
	if err != nil {
		return false
	}
	return len(members) == 0
}

func matchCall(xl *xlog.Logger, call Call, filter CallFilter) bool {
	if !filter.StartedAfter.IsZero() && call.StartedAt().Before(filter.StartedAfter) {
		return false
	}
	if !filter.StartedBefore.IsZero() && call.StartedAt().After(filter.StartedBefore) {
		return false
	}
	if filter.Member != "" {
		members, err := call.Members(xl)
		if err != nil {
			return false
		}
		found := false
		for _, m := range members {
			if m == filter.Member {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortCallsByStart(calls []Call) {
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].StartedAt().Before(calls[j].StartedAt())
	})
}
