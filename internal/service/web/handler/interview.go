package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	"github.com/solutions/interview-cube/internal/protodef/errors"
	"github.com/solutions/interview-cube/internal/protodef/form"
	"github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/db"
)

// InterviewInterface 面试记录操作。
type InterviewInterface interface {
	CreateInterview(xl *xlog.Logger, interview *model.InterviewDo) (*model.InterviewDo, error)
	ListAllInterviews(xl *xlog.Logger) ([]model.InterviewDo, error)
	ListInterviewsByCandidate(xl *xlog.Logger, candidateID string) ([]model.InterviewDo, error)
	GetInterviewByID(xl *xlog.Logger, interviewID string) (*model.InterviewDo, error)
	GetInterviewByCallID(xl *xlog.Logger, callID string) (*model.InterviewDo, error)
	SetStatus(xl *xlog.Logger, interviewID, status, actorID string) (*model.InterviewDo, error)
}

type InterviewApiHandler struct {
	Interview InterviewInterface
}

func NewInterviewApiHandler(conf utils.Config) *InterviewApiHandler {
	i := new(InterviewApiHandler)
	var err error
	i.Interview, err = db.NewInterviewService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	return i
}

// CreateInterview 创建面试。
func (h *InterviewApiHandler) CreateInterview(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	args := &form.InterviewCreateForm{}
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
	interview, err := h.Interview.CreateInterview(xl, args.Interview(userID))
	if err != nil {
		if errors.IsCode(err, errors.ServerErrorCallIDUsed) {
			responseErr := model.NewResponseErrorCallIDUsed()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		xl.Errorf("failed to create interview, error %v", err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	resp := model.CreateInterviewResponse{ID: interview.ID}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// ListAllInterviews 面试列表。
func (h *InterviewApiHandler) ListAllInterviews(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	interviews, err := h.Interview.ListAllInterviews(xl)
	if err != nil {
		xl.Errorf("failed to list interviews, error %v", err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(interviewList(interviews)).WithRequestID(requestID).Send(c)
}

// ListMyInterviews 当前用户作为候选人的面试列表。
func (h *InterviewApiHandler) ListMyInterviews(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	interviews, err := h.Interview.ListInterviewsByCandidate(xl, userID)
	if err != nil {
		xl.Errorf("failed to list interviews of user %s, error %v", userID, err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(interviewList(interviews)).WithRequestID(requestID).Send(c)
}

// GetInterviewByCallID 按callId查询面试。供通话页在接入前取面试信息，
// 不要求登录态。
func (h *InterviewApiHandler) GetInterviewByCallID(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	callID := c.Param("callId")
	interview, err := h.Interview.GetInterviewByCallID(xl, callID)
	if err != nil {
		if errors.IsCode(err, errors.ServerErrorInterviewNotFound) {
			responseErr := model.NewResponseErrorNoSuchInterview()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		xl.Errorf("failed to get interview by call %s, error %v", callID, err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(model.NewInterviewResponse(interview)).WithRequestID(requestID).Send(c)
}

// UpdateStatus 更新面试状态，要求操作者为该面试参与者。
func (h *InterviewApiHandler) UpdateStatus(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	interviewID := c.Param("interviewId")
	args := &form.StatusUpdateForm{}
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
	interview, err := h.Interview.SetStatus(xl, interviewID, args.Status, userID)
	if err != nil {
		var responseErr *model.ResponseError
		switch {
		case errors.IsCode(err, errors.ServerErrorInterviewNotFound):
			responseErr = model.NewResponseErrorNoSuchInterview()
		case errors.IsCode(err, errors.ServerErrorUserNoPermission):
			responseErr = model.NewResponseErrorNoPermission()
		default:
			xl.Errorf("failed to update status of interview %s, error %v", interviewID, err)
			responseErr = model.NewResponseErrorInternal()
		}
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(model.NewInterviewResponse(interview)).WithRequestID(requestID).Send(c)
}

func interviewList(interviews []model.InterviewDo) model.InterviewListResponse {
	list := make([]model.InterviewResponse, 0, len(interviews))
	for i := range interviews {
		list = append(list, model.NewInterviewResponse(&interviews[i]))
	}
	return model.InterviewListResponse{Total: len(list), List: list}
}
