package model

/*
	call_model.go: 通话会话的内存状态定义。会话不落库，随进程生命周期存在，
	页面重新加载时通过callId重建。
*/

type DeviceKind string

const (
	DeviceKindCamera     DeviceKind = "camera"
	DeviceKindMicrophone DeviceKind = "microphone"
)

func (k DeviceKind) Valid() bool {
	return k == DeviceKindCamera || k == DeviceKindMicrophone
}

type DeviceState string

const (
	DeviceStateDisabled   DeviceState = "disabled"
	DeviceStateRequesting DeviceState = "requesting"
	DeviceStateEnabled    DeviceState = "enabled"
)

type SessionState string

const (
	SessionStateUninitialized SessionState = "uninitialized"
	SessionStateSetup         SessionState = "setup"
	SessionStateJoined        SessionState = "joined"
	SessionStateEnded         SessionState = "ended"
)
