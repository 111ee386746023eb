package cloud

import (
	"sync"

	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
)

// 客户端上报的权限状态，取值与浏览器Permissions API一致。
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionPrompt  = "prompt"
)

// MediaDevice 一个可用的采集设备。
type MediaDevice struct {
	Kind  model.DeviceKind `json:"kind"`
	Label string           `json:"label"`
}

// DeviceProber 探测某类设备的访问权限与设备清单。
type DeviceProber interface {
	// RequestAccess 申请访问权限。被拒绝时返回ServerErrorMediaPermissionDenied。
	RequestAccess(kind model.DeviceKind) error
	ListDevices(kind model.DeviceKind) ([]MediaDevice, error)
}

// ReportedDeviceProber 基于客户端在接入时上报的设备清单与权限状态。
// 媒体采集发生在客户端，服务端据上报内容做协商。
type ReportedDeviceProber struct {
	mu          sync.Mutex
	devices     map[model.DeviceKind][]MediaDevice
	permissions map[model.DeviceKind]string
}

func NewReportedDeviceProber() *ReportedDeviceProber {
	return &ReportedDeviceProber{
		devices:     make(map[model.DeviceKind][]MediaDevice),
		permissions: make(map[model.DeviceKind]string),
	}
}

// Update 覆盖上报内容。devices按类别整表替换，permissions中未知类别忽略。
func (p *ReportedDeviceProber) Update(devices []MediaDevice, permissions map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices = make(map[model.DeviceKind][]MediaDevice)
	for _, d := range devices {
		p.devices[d.Kind] = append(p.devices[d.Kind], d)
	}
	for kind, state := range permissions {
		k := model.DeviceKind(kind)
		if !k.Valid() {
			continue
		}
		p.permissions[k] = state
	}
}

func (p *ReportedDeviceProber) RequestAccess(kind model.DeviceKind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.permissions[kind] == PermissionDenied {
		return &errors2.ServerError{Code: errors2.ServerErrorMediaPermissionDenied}
	}
	// prompt状态视为可继续：客户端会在真正采集时弹窗。
	return nil
}

func (p *ReportedDeviceProber) ListDevices(kind model.DeviceKind) ([]MediaDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]MediaDevice, len(p.devices[kind]))
	copy(res, p.devices[kind])
	return res, nil
}
