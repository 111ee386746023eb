package call

import (
	"sync"

	model "github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/cloud"
	"github.com/solutions/interview-cube/internal/service/media"
)

// Session 一个用户在一次通话中的接入状态。会话只存在于内存，
// 页面重新加载后由Setup按callId重建。
type Session struct {
	CallID string
	UserID string

	mu         sync.Mutex
	state      model.SessionState
	call       cloud.Call
	prober     *cloud.ReportedDeviceProber
	negotiator *media.Negotiator
	notices    []string
}

func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state model.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// DeviceState 某类设备的当前协商状态。
func (s *Session) DeviceState(kind model.DeviceKind) model.DeviceState {
	return s.negotiator.State(kind)
}

func (s *Session) addNotice(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, message)
}

// DrainNotices 取出并清空积累的提示消息。
func (s *Session) DrainNotices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices
	s.notices = nil
	return notices
}
