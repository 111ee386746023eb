package call

import (
	"sync"

	"github.com/qiniu/x/xlog"

	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/cloud"
	"github.com/solutions/interview-cube/internal/service/media"
)

// InterviewStore 通话控制器需要的面试记录操作。
type InterviewStore interface {
	GetInterviewByCallID(xl *xlog.Logger, callID string) (*model.InterviewDo, error)
	SetStatus(xl *xlog.Logger, interviewID, status, actorID string) (*model.InterviewDo, error)
}

// EndResult 一次结束通话操作的结果。两步操作独立执行，任一步失败
// 不阻止另一步，Redirect恒为true，用户总是离开通话页。
type EndResult struct {
	CallEnded          bool
	InterviewCompleted bool
	Redirect           bool
	Message            string
}

// Controller 通话会话控制器。维护用户在各通话中的会话，驱动设备协商，
// 执行加入与结束操作。
type Controller struct {
	calls      cloud.CallService
	interviews InterviewStore
	// OnJoin 用户成功加入通话后回调，可用于将面试标记为live。
	OnJoin func(xl *xlog.Logger, callID, userID string)

	lock     sync.RWMutex
	sessions map[string]*Session
	xl       *xlog.Logger
}

func NewController(calls cloud.CallService, interviews InterviewStore, xl *xlog.Logger) *Controller {
	if xl == nil {
		xl = xlog.New("interview-cube-call-controller")
	}
	return &Controller{
		calls:      calls,
		interviews: interviews,
		sessions:   make(map[string]*Session),
		xl:         xl,
	}
}

func sessionKey(callID, userID string) string {
	return callID + "_" + userID
}

// Setup 建立或刷新一个会话，记录客户端上报的设备清单与权限状态。
// 重复Setup用于页面重新加载后的会话重建，设备报告整体替换。
func (c *Controller) Setup(xl *xlog.Logger, callID, userID string, devices []cloud.MediaDevice, permissions map[string]string) (*Session, error) {
	if xl == nil {
		xl = c.xl
	}
	cloudCall, err := c.calls.GetCall(xl, callID)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	session, ok := c.sessions[sessionKey(callID, userID)]
	if !ok {
		prober := cloud.NewReportedDeviceProber()
		session = &Session{
			CallID: callID,
			UserID: userID,
			state:  model.SessionStateUninitialized,
			call:   cloudCall,
			prober: prober,
		}
		session.negotiator = media.NewNegotiator(userID, prober, cloudCall, session.addNotice, xl)
		c.sessions[sessionKey(callID, userID)] = session
	}
	session.prober.Update(devices, permissions)
	if session.State() != model.SessionStateJoined {
		session.setState(model.SessionStateSetup)
	}
	xl.Debugf("session %s/%s setup with %d devices", callID, userID, len(devices))
	return session, nil
}

// GetSession 查找已有会话。
func (c *Controller) GetSession(xl *xlog.Logger, callID, userID string) (*Session, error) {
	if xl == nil {
		xl = c.xl
	}
	c.lock.RLock()
	session, ok := c.sessions[sessionKey(callID, userID)]
	c.lock.RUnlock()
	if !ok {
		xl.Infof("no session for call %s user %s", callID, userID)
		return nil, &errors2.ServerError{Code: errors2.ServerErrorSessionNotFound}
	}
	return session, nil
}

// Toggle 开关某类设备。会话须已Setup。
func (c *Controller) Toggle(xl *xlog.Logger, callID, userID string, kind model.DeviceKind, enabled bool) (*Session, error) {
	if xl == nil {
		xl = c.xl
	}
	session, err := c.GetSession(xl, callID, userID)
	if err != nil {
		return nil, err
	}
	if session.State() == model.SessionStateEnded {
		return nil, &errors2.ServerError{Code: errors2.ServerErrorSessionEnded}
	}
	if enabled {
		err = session.negotiator.Enable(xl, kind)
	} else {
		err = session.negotiator.Disable(xl, kind)
	}
	return session, err
}

// Join 将用户加入通话，返回接入凭证。会话进入joined状态。
func (c *Controller) Join(xl *xlog.Logger, callID, userID string) (string, *Session, error) {
	if xl == nil {
		xl = c.xl
	}
	session, err := c.GetSession(xl, callID, userID)
	if err != nil {
		return "", nil, err
	}
	if session.State() == model.SessionStateEnded {
		return "", nil, &errors2.ServerError{Code: errors2.ServerErrorSessionEnded}
	}
	token, err := session.call.Join(xl, userID)
	if err != nil {
		xl.Errorf("user %s failed to join call %s, error %v", userID, callID, err)
		return "", nil, err
	}
	session.setState(model.SessionStateJoined)
	xl.Infof("user %s joined call %s", userID, callID)
	if c.OnJoin != nil {
		c.OnJoin(xl, callID, userID)
	}
	return token, session, nil
}

// CanEndCall 判断用户是否具备结束通话的能力。通话创建者没有该能力，
// 其他用户有。通话无对应面试时视为无能力。
func (c *Controller) CanEndCall(xl *xlog.Logger, callID, userID string) bool {
	if xl == nil {
		xl = c.xl
	}
	_, err := c.interviews.GetInterviewByCallID(xl, callID)
	if err != nil {
		return false
	}
	cloudCall, err := c.calls.GetCall(xl, callID)
	if err != nil {
		return false
	}
	return cloudCall.CreatedBy() != userID
}

// EndCall 结束通话并将对应面试标记为completed。两步独立执行，
// 各自失败只体现在结果里，调用方总是拿到Redirect=true。
func (c *Controller) EndCall(xl *xlog.Logger, callID, userID string) EndResult {
	if xl == nil {
		xl = c.xl
	}
	res := EndResult{Redirect: true}

	cloudCall, err := c.calls.GetCall(xl, callID)
	if err != nil {
		xl.Errorf("failed to get call %s, error %v", callID, err)
		res.Message = "failed to end call"
	} else if err = cloudCall.EndCall(xl); err != nil {
		xl.Errorf("failed to end call %s, error %v", callID, err)
		res.Message = "failed to end call"
	} else {
		res.CallEnded = true
	}

	interview, err := c.interviews.GetInterviewByCallID(xl, callID)
	if err != nil {
		xl.Errorf("no interview for call %s, error %v", callID, err)
		if res.Message == "" {
			res.Message = "failed to complete interview"
		}
	} else if _, err = c.interviews.SetStatus(xl, interview.ID, model.InterviewStatusCompleted, userID); err != nil {
		xl.Errorf("failed to complete interview %s, error %v", interview.ID, err)
		if res.Message == "" {
			res.Message = "failed to complete interview"
		}
	} else {
		res.InterviewCompleted = true
	}

	c.lock.Lock()
	for key, session := range c.sessions {
		if session.CallID == callID {
			session.setState(model.SessionStateEnded)
			delete(c.sessions, key)
		}
	}
	c.lock.Unlock()

	xl.Infof("user %s ended call %s, callEnded %v, interviewCompleted %v", userID, callID, res.CallEnded, res.InterviewCompleted)
	return res
}
