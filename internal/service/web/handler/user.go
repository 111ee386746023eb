package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	"github.com/solutions/interview-cube/internal/protodef/errors"
	"github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/db"
)

// UserInterface 用户查询操作。
type UserInterface interface {
	GetUserByID(xl *xlog.Logger, id string) (*model.UserDo, error)
	ListAll(xl *xlog.Logger) ([]model.UserDo, error)
}

type UserApiHandler struct {
	Users UserInterface
}

func NewUserApiHandler(conf utils.Config) *UserApiHandler {
	h := new(UserApiHandler)
	var err error
	h.Users, err = db.NewUserService(*conf.Mongo, conf.Webhook.DefaultRole, nil)
	if err != nil {
		panic(err)
	}
	return h
}

// GetMyInfo 当前登录用户的信息。
func (h *UserApiHandler) GetMyInfo(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	userID := c.GetString(model.UserIDContextKey)
	user, err := h.Users.GetUserByID(xl, userID)
	if err != nil {
		if errors.IsCode(err, errors.ServerErrorUserNotFound) {
			responseErr := model.NewResponseErrorNoSuchUser()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		xl.Errorf("failed to get user %s, error %v", userID, err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(userInfo(user)).WithRequestID(requestID).Send(c)
}

// ListUsers 全部用户，供排期界面选择候选人与面试官。
func (h *UserApiHandler) ListUsers(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	users, err := h.Users.ListAll(xl)
	if err != nil {
		xl.Errorf("failed to list users, error %v", err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	list := make([]model.UserInfoResponse, 0, len(users))
	for i := range users {
		list = append(list, userInfo(&users[i]))
	}
	model.NewSuccessResponse(list).WithRequestID(requestID).Send(c)
}

func userInfo(user *model.UserDo) model.UserInfoResponse {
	return model.UserInfoResponse{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Avatar: user.Avatar,
		Role:   user.Role,
	}
}
