package media

import (
	"fmt"
	"strings"
	"sync"

	"github.com/qiniu/x/xlog"

	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/cloud"
)

// NotifyFunc 向用户投递一条提示消息。
type NotifyFunc func(message string)

// Negotiator 管理一个用户在一次通话中的设备状态。每类设备独立持锁，
// 同类设备的开关请求串行执行，不同类设备互不阻塞。
type Negotiator struct {
	userID string
	prober cloud.DeviceProber
	call   cloud.Call
	notify NotifyFunc
	xl     *xlog.Logger

	classes map[model.DeviceKind]*deviceClass
}

// deviceClass 一类设备的状态。toggle串行化同类设备的开关流程，
// mu只保护state，流程进行中状态仍可读。
type deviceClass struct {
	toggle sync.Mutex
	mu     sync.Mutex
	state  model.DeviceState
}

func (c *deviceClass) getState() model.DeviceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *deviceClass) setState(state model.DeviceState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func NewNegotiator(userID string, prober cloud.DeviceProber, call cloud.Call, notify NotifyFunc, xl *xlog.Logger) *Negotiator {
	if xl == nil {
		xl = xlog.New("interview-cube-negotiator")
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &Negotiator{
		userID: userID,
		prober: prober,
		call:   call,
		notify: notify,
		xl:     xl,
		classes: map[model.DeviceKind]*deviceClass{
			model.DeviceKindCamera:     {state: model.DeviceStateDisabled},
			model.DeviceKindMicrophone: {state: model.DeviceStateDisabled},
		},
	}
}

// State 返回某类设备的当前状态。
func (n *Negotiator) State(kind model.DeviceKind) model.DeviceState {
	class, ok := n.classes[kind]
	if !ok {
		return model.DeviceStateDisabled
	}
	return class.getState()
}

// Enable 走完一类设备的启用流程：申请权限、确认设备存在、在通话上开启。
// 任一步失败则回到disabled并提示用户，流程可重复发起。
func (n *Negotiator) Enable(xl *xlog.Logger, kind model.DeviceKind) error {
	if xl == nil {
		xl = n.xl
	}
	class, ok := n.classes[kind]
	if !ok {
		return &errors2.ServerError{Code: errors2.ServerErrorMediaDeviceNotFound}
	}
	class.toggle.Lock()
	defer class.toggle.Unlock()
	if class.getState() == model.DeviceStateEnabled {
		return nil
	}
	class.setState(model.DeviceStateRequesting)

	if err := n.prober.RequestAccess(kind); err != nil {
		if errors2.IsCode(err, errors2.ServerErrorMediaPermissionDenied) {
			class.setState(model.DeviceStateDisabled)
			xl.Infof("user %s denied %s permission", n.userID, kind)
			n.notify(fmt.Sprintf("%s access was denied, check your browser permissions", kind))
			return err
		}
		// 权限探测本身失败不终止流程，真正的失败会在设备开启时暴露。
		xl.Errorf("failed to probe %s permission for user %s, error %v", kind, n.userID, err)
	}

	devices, err := n.prober.ListDevices(kind)
	if err != nil {
		class.setState(model.DeviceStateDisabled)
		xl.Errorf("failed to list %s devices for user %s, error %v", kind, n.userID, err)
		n.notify(fmt.Sprintf("failed to look up %s devices", kind))
		return &errors2.ServerError{Code: errors2.ServerErrorMediaUnknown}
	}
	if len(devices) == 0 {
		class.setState(model.DeviceStateDisabled)
		xl.Infof("user %s has no %s device", n.userID, kind)
		n.notify(fmt.Sprintf("no %s found on this machine", kind))
		return &errors2.ServerError{Code: errors2.ServerErrorMediaDeviceNotFound}
	}

	if err := n.call.EnableDevice(xl, n.userID, kind); err != nil {
		class.setState(model.DeviceStateDisabled)
		code := ClassifyMediaError(err)
		xl.Infof("failed to enable %s for user %s, code %d, error %v", kind, n.userID, code, err)
		n.notify(mediaErrorMessage(kind, code))
		return &errors2.ServerError{Code: code}
	}
	class.setState(model.DeviceStateEnabled)
	xl.Debugf("user %s enabled %s", n.userID, kind)
	return nil
}

// Disable 关闭一类设备。通话侧关闭失败只提示，本地状态仍回到disabled，
// 下一次Enable会重走完整流程。
func (n *Negotiator) Disable(xl *xlog.Logger, kind model.DeviceKind) error {
	if xl == nil {
		xl = n.xl
	}
	class, ok := n.classes[kind]
	if !ok {
		return &errors2.ServerError{Code: errors2.ServerErrorMediaDeviceNotFound}
	}
	class.toggle.Lock()
	defer class.toggle.Unlock()
	err := n.call.DisableDevice(xl, n.userID, kind)
	if err != nil {
		xl.Errorf("failed to disable %s for user %s, error %v", kind, n.userID, err)
		n.notify(fmt.Sprintf("failed to turn off %s", kind))
	}
	class.setState(model.DeviceStateDisabled)
	return err
}

// ClassifyMediaError 将设备开启失败归类到媒体错误码。归类依据错误文本，
// 未匹配的归为ServerErrorMediaUnknown。
func ClassifyMediaError(err error) int {
	if err == nil {
		return 0
	}
	if serverErr, ok := err.(*errors2.ServerError); ok && serverErr.Code >= 30000 && serverErr.Code < 40000 {
		return serverErr.Code
	}
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "permission") || strings.Contains(text, "not allowed"):
		return errors2.ServerErrorMediaPermissionDenied
	case strings.Contains(text, "not found") || strings.Contains(text, "no device"):
		return errors2.ServerErrorMediaDeviceNotFound
	case strings.Contains(text, "in use") || strings.Contains(text, "not readable") || strings.Contains(text, "could not start"):
		return errors2.ServerErrorMediaDeviceBusy
	case strings.Contains(text, "constrain"):
		return errors2.ServerErrorMediaConstraint
	default:
		return errors2.ServerErrorMediaUnknown
	}
}

func mediaErrorMessage(kind model.DeviceKind, code int) string {
	switch code {
	case errors2.ServerErrorMediaPermissionDenied:
		return fmt.Sprintf("%s access was denied, check your browser permissions", kind)
	case errors2.ServerErrorMediaDeviceNotFound:
		return fmt.Sprintf("no %s found on this machine", kind)
	case errors2.ServerErrorMediaDeviceBusy:
		return fmt.Sprintf("%s is in use by another application", kind)
	case errors2.ServerErrorMediaConstraint:
		return fmt.Sprintf("%s does not support the requested settings", kind)
	default:
		return fmt.Sprintf("failed to start %s", kind)
	}
}
