package form

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/solutions/interview-cube/internal/protodef/model"
)

// ReportedDevice 客户端上报的一个媒体设备。
type ReportedDevice struct {
	Kind  string `json:"kind" form:"kind"`
	Label string `json:"label" form:"label"`
}

// CallSetupForm 建立通话会话的参数。客户端上报其可见的设备清单与
// 浏览器权限状态，服务端据此进行设备协商。
type CallSetupForm struct {
	Devices []ReportedDevice `json:"devices"`
	// Permissions kind -> granted|denied|prompt
	Permissions map[string]string `json:"permissions"`
}

func (f *CallSetupForm) Validate() error {
	for _, d := range f.Devices {
		if !model.DeviceKind(d.Kind).Valid() {
			return validation.NewError("validation_device_kind", "unknown device kind "+d.Kind)
		}
	}
	return nil
}

// DeviceToggleForm 开关摄像头/麦克风的参数。
type DeviceToggleForm struct {
	Device  string `json:"device" form:"device"`
	Enabled bool   `json:"enabled" form:"enabled"`
}

func (f *DeviceToggleForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Device, validation.Required, validation.In(
			string(model.DeviceKindCamera), string(model.DeviceKindMicrophone))),
	)
}
