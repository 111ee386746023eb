package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	"github.com/solutions/interview-cube/internal/protodef/errors"
	"github.com/solutions/interview-cube/internal/protodef/form"
	"github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/call"
	"github.com/solutions/interview-cube/internal/service/cloud"
	"github.com/solutions/interview-cube/internal/service/db"
)

// CallApiHandler 通话会话接口。
type CallApiHandler struct {
	Controller *call.Controller
	Calls      cloud.CallService
	Interview  InterviewInterface
}

func NewCallApiHandler(conf utils.Config) *CallApiHandler {
	interviewService, err := db.NewInterviewService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	callService := cloud.NewCallService(conf, interviewService, nil)
	controller := call.NewController(callService, interviewService, nil)
	// 首个用户加入通话时把排期中的面试推进到live。
	controller.OnJoin = func(xl *xlog.Logger, callID, userID string) {
		interview, err := interviewService.GetInterviewByCallID(xl, callID)
		if err != nil || interview.Status != model.InterviewStatusScheduled {
			return
		}
		if _, err := interviewService.SetStatus(xl, interview.ID, model.InterviewStatusLive, model.SystemActorID); err != nil {
			xl.Errorf("failed to mark interview %s live, error %v", interview.ID, err)
		}
	}
	return &CallApiHandler{
		Controller: controller,
		Calls:      callService,
		Interview:  interviewService,
	}
}

// ListCalls 当前用户参与的通话列表，按开始时间排序。可选的from/to参数
// （unix秒）限定开始时间范围。
func (h *CallApiHandler) ListCalls(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	filter := cloud.CallFilter{}
	if from := c.Query("from"); from != "" {
		seconds, err := strconv.ParseInt(from, 10, 64)
		if err != nil {
			xl.Infof("invalid from %q, error %v", from, err)
			responseErr := model.NewResponseErrorBadRequest()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		filter.StartedAfter = time.Unix(seconds, 0)
	}
	if to := c.Query("to"); to != "" {
		seconds, err := strconv.ParseInt(to, 10, 64)
		if err != nil {
			xl.Infof("invalid to %q, error %v", to, err)
			responseErr := model.NewResponseErrorBadRequest()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		filter.StartedBefore = time.Unix(seconds, 0)
	}
	// 通话侧不保存参与者与通话的关系，从面试记录反查当前用户的callId。
	interviews, err := h.Interview.ListAllInterviews(xl)
	if err != nil {
		xl.Errorf("failed to list interviews of user %s, error %v", userID, err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	for i := range interviews {
		if interviews[i].HasParticipant(userID) {
			filter.IDs = append(filter.IDs, interviews[i].CallID)
		}
	}
	if len(filter.IDs) == 0 {
		resp := model.CallListResponse{Total: 0, List: []model.CallResponse{}}
		model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
		return
	}
	calls, err := h.Calls.ListCalls(xl, filter)
	if err != nil {
		xl.Errorf("failed to list calls of user %s, error %v", userID, err)
		responseErr := model.NewResponseErrorExternalService()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	list := make([]model.CallResponse, 0, len(calls))
	for _, item := range calls {
		resp := model.CallResponse{
			CallID:    item.ID(),
			CreatedBy: item.CreatedBy(),
		}
		if startedAt := item.StartedAt(); !startedAt.IsZero() {
			resp.StartTime = startedAt.Unix()
		}
		list = append(list, resp)
	}
	resp := model.CallListResponse{Total: len(list), List: list}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// Setup 建立通话会话，记录客户端上报的设备与权限。重复调用用于
// 页面重新加载后重建会话。
func (h *CallApiHandler) Setup(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	callID := c.Param("callId")
	args := &form.CallSetupForm{}
	err := c.Bind(args)
	if err != nil {
		xl.Infof("invalid args in body, error %v", err)
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := args.Validate(); err != nil {
		xl.Infof("form validation error: %v", err)
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	devices := make([]cloud.MediaDevice, 0, len(args.Devices))
	for _, d := range args.Devices {
		devices = append(devices, cloud.MediaDevice{Kind: model.DeviceKind(d.Kind), Label: d.Label})
	}
	session, err := h.Controller.Setup(xl, callID, userID, devices, args.Permissions)
	if err != nil {
		xl.Errorf("failed to setup session for call %s user %s, error %v", callID, userID, err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(h.sessionResponse(xl, session)).WithRequestID(requestID).Send(c)
}

// GetSession 查询会话状态，顺带取走积累的提示消息。
func (h *CallApiHandler) GetSession(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	callID := c.Param("callId")
	session, err := h.Controller.GetSession(xl, callID, userID)
	if err != nil {
		responseErr := model.NewResponseErrorNoSuchSession()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(h.sessionResponse(xl, session)).WithRequestID(requestID).Send(c)
}

// ToggleDevice 开关摄像头或麦克风。设备启用失败时返回设备不可用错误，
// 具体原因在消息中。
func (h *CallApiHandler) ToggleDevice(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	callID := c.Param("callId")
	args := &form.DeviceToggleForm{}
	err := c.Bind(args)
	if err != nil {
		xl.Infof("invalid args in body, error %v", err)
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := args.Validate(); err != nil {
		xl.Infof("form validation error: %v", err)
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	session, err := h.Controller.Toggle(xl, callID, userID, model.DeviceKind(args.Device), args.Enabled)
	if err != nil {
		switch {
		case errors.IsCode(err, errors.ServerErrorSessionNotFound):
			responseErr := model.NewResponseErrorNoSuchSession()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		case errors.IsCode(err, errors.ServerErrorSessionEnded):
			responseErr := model.NewResponseError(model.ResponseErrorDeviceDisabled, "call already ended")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		default:
			message := strings.Join(session.DrainNotices(), "; ")
			if message == "" {
				message = "device unavailable"
			}
			responseErr := model.NewResponseError(model.ResponseErrorDeviceDisabled, message)
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		}
		return
	}
	model.NewSuccessResponse(h.sessionResponse(xl, session)).WithRequestID(requestID).Send(c)
}

// Join 加入通话，返回接入RTC房间的room token。
func (h *CallApiHandler) Join(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	callID := c.Param("callId")
	token, session, err := h.Controller.Join(xl, callID, userID)
	if err != nil {
		var responseErr *model.ResponseError
		switch {
		case errors.IsCode(err, errors.ServerErrorSessionNotFound):
			responseErr = model.NewResponseErrorNoSuchSession()
		case errors.IsCode(err, errors.ServerErrorSessionEnded):
			responseErr = model.NewResponseError(model.ResponseErrorDeviceDisabled, "call already ended")
		default:
			responseErr = model.NewResponseErrorExternalService()
		}
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	resp := model.JoinCallResponse{
		RoomToken: token,
		State:     string(session.State()),
	}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// End 结束通话并将面试记为completed。通话创建者没有结束能力。
// 两步操作独立执行，任一步失败仍引导用户离开通话页。
func (h *CallApiHandler) End(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	callID := c.Param("callId")
	if !h.Controller.CanEndCall(xl, callID, userID) {
		xl.Infof("user %s cannot end call %s", userID, callID)
		responseErr := model.NewResponseErrorNoPermission()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	res := h.Controller.EndCall(xl, callID, userID)
	resp := model.EndCallResponse{
		CallEnded:          res.CallEnded,
		InterviewCompleted: res.InterviewCompleted,
		Redirect:           res.Redirect,
		Message:            res.Message,
	}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

func (h *CallApiHandler) sessionResponse(xl *xlog.Logger, session *call.Session) model.SessionResponse {
	return model.SessionResponse{
		CallID:     session.CallID,
		State:      string(session.State()),
		Camera:     string(session.DeviceState(model.DeviceKindCamera)),
		Microphone: string(session.DeviceState(model.DeviceKindMicrophone)),
		Options: model.SessionOptionResponse{
			ShowEndCall: h.Controller.CanEndCall(xl, session.CallID, session.UserID),
		},
		Notices: session.DrainNotices(),
	}
}
