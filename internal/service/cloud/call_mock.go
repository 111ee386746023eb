package cloud

import (
	"sync"
	"time"

	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
)

// MockCallService 内存实现，本地开发与测试用。通话在首次GetCall时
// 按callId建出，创建者与开始时间取自业务元信息。
type MockCallService struct {
	mu    sync.Mutex
	meta  CallMetaSource
	calls map[string]*MockCall
}

func NewMockCallService(meta CallMetaSource) *MockCallService {
	return &MockCallService{
		meta:  meta,
		calls: make(map[string]*MockCall),
	}
}

func (s *MockCallService) GetCall(xl *xlog.Logger, callID string) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if call, ok := s.calls[callID]; ok {
		return call, nil
	}
	call := &MockCall{
		CallID:  callID,
		members: make(map[string]bool),
	}
	if s.meta != nil {
		if interview, err := s.meta.GetInterviewByCallID(xl, callID); err == nil {
			call.Creator = interview.Creator
			call.Start = interview.StartTime
		}
	}
	s.calls[callID] = call
	return call, nil
}

func (s *MockCallService) ListCalls(xl *xlog.Logger, filter CallFilter) ([]Call, error) {
	s.mu.Lock()
	known := make([]*MockCall, 0, len(s.calls))
	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			if call, ok := s.calls[id]; ok {
				known = append(known, call)
			}
		}
	} else {
		for _, call := range s.calls {
			known = append(known, call)
		}
	}
	s.mu.Unlock()
	calls := make([]Call, 0, len(known))
	for _, call := range known {
		if matchCall(xl, call, filter) {
			calls = append(calls, call)
		}
	}
	sortCallsByStart(calls)
	return calls, nil
}

// MockCall 可注入失败的内存通话。Err字段非nil时对应操作直接返回该错误。
type MockCall struct {
	CallID  string
	Creator string
	Start   time.Time

	JoinErr   error
	EndErr    error
	EnableErr map[model.DeviceKind]error

	mu      sync.Mutex
	ended   bool
	members map[string]bool
	devices map[string]map[model.DeviceKind]bool
}

func NewMockCall(callID, creator string) *MockCall {
	return &MockCall{
		CallID:  callID,
		Creator: creator,
		members: make(map[string]bool),
	}
}

func (c *MockCall) ID() string {
	return c.CallID
}

func (c *MockCall) CreatedBy() string {
	return c.Creator
}

func (c *MockCall) StartedAt() time.Time {
	return c.Start
}

func (c *MockCall) Join(xl *xlog.Logger, userID string) (string, error) {
	if c.JoinErr != nil {
		return "", c.JoinErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return "", &errors2.ServerError{Code: errors2.ServerErrorSessionEnded}
	}
	c.members[userID] = true
	return utils.GenerateID(), nil
}

func (c *MockCall) EndCall(xl *xlog.Logger) error {
	if c.EndErr != nil {
		return c.EndErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ended = true
	c.members = make(map[string]bool)
	return nil
}

func (c *MockCall) EnableDevice(xl *xlog.Logger, userID string, kind model.DeviceKind) error {
	if err := c.EnableErr[kind]; err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.devices == nil {
		c.devices = make(map[string]map[model.DeviceKind]bool)
	}
	if c.devices[userID] == nil {
		c.devices[userID] = make(map[model.DeviceKind]bool)
	}
	c.devices[userID][kind] = true
	return nil
}

func (c *MockCall) DisableDevice(xl *xlog.Logger, userID string, kind model.DeviceKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.devices[userID] != nil {
		c.devices[userID][kind] = false
	}
	return nil
}

// DeviceEnabled 测试用，查询通话侧记录的设备状态。
func (c *MockCall) DeviceEnabled(userID string, kind model.DeviceKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devices[userID] != nil && c.devices[userID][kind]
}

func (c *MockCall) Members(xl *xlog.Logger) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]string, 0, len(c.members))
	for id := range c.members {
		res = append(res, id)
	}
	return res, nil
}

func (c *MockCall) Ended(xl *xlog.Logger) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}
