package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	model "github.com/solutions/interview-cube/internal/protodef/model"
)

// Authenticate 校验请求者的身份。根据Authorization:Bearer <token>校验，
// token为本服务签发的JWT，userID取自claims。
func Authenticate(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		xl.Debugf("%s %s: request unauthorized, wrong auth header format", c.Request.Method, c.Request.URL.Path)
		responseErr := model.NewResponseErrorNotLoggedIn()
		resp := model.NewFailResponse(*responseErr).WithRequestID(requestID)
		c.JSON(http.StatusOK, resp)
		c.Abort()
		return
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := utils.JwtDecode(token)
	if err != nil {
		xl.Debugf("%s %s: request unauthorized, error %v", c.Request.Method, c.Request.URL.Path, err)
		responseErr := model.NewResponseErrorBadToken()
		resp := model.NewFailResponse(*responseErr).WithRequestID(requestID)
		c.JSON(http.StatusOK, resp)
		c.Abort()
		return
	}
	userID, _ := claims["userID"].(string)
	if userID == "" {
		xl.Debugf("%s %s: token carries no userID", c.Request.Method, c.Request.URL.Path)
		responseErr := model.NewResponseErrorBadToken()
		resp := model.NewFailResponse(*responseErr).WithRequestID(requestID)
		c.JSON(http.StatusOK, resp)
		c.Abort()
		return
	}
	c.Set(model.UserIDContextKey, userID)
}
