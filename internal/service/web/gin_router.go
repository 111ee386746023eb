// Copyright 2020 Qiniu Cloud (qiniu.com)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package web

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/interview-cube/internal/common/utils"
	"github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/web/handler"
	"github.com/solutions/interview-cube/internal/service/web/middleware"
)

// NewRouter 返回gin router，分流API。
func NewRouter(config *utils.Config) (*gin.Engine, error) {
	// 1. 初始化GIN
	router := gin.New()
	router.Use(gin.Recovery())
	// 1.1. 全局CORS配置
	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AllowHeaders = append(corsConf.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConf))

	// 2. 声明Handler
	webhookApiHandler := handler.NewWebhookApiHandler(*config)
	userApiHandler := handler.NewUserApiHandler(*config)
	interviewApiHandler := handler.NewInterviewApiHandler(*config)
	callApiHandler := handler.NewCallApiHandler(*config)

	// 3. 配置V1路径
	v1 := router.Group("/v1", addRequestID, middleware.AccessLog())
	{
		// 3.1 身份服务webhook，由身份服务直接回调，不走登录态。
		v1.POST("clerk-webhook", webhookApiHandler.HandleIdentityEvent)
		// 3.2 面试详情，通话页在接入前按callId取信息，无需登录。
		v1.GET("interview/call/:callId", interviewApiHandler.GetInterviewByCallID)
	}
	auth := v1.Group("", middleware.Authenticate)
	{
		// 3.3 用户信息
		auth.GET("user", userApiHandler.ListUsers)
		auth.GET("user/me", userApiHandler.GetMyInfo)

		// 3.4 面试列表/排期
		auth.GET("interview", interviewApiHandler.ListAllInterviews)
		auth.GET("interview/mine", interviewApiHandler.ListMyInterviews)
		auth.POST("interview", interviewApiHandler.CreateInterview)
		auth.POST("interview/:interviewId/status", interviewApiHandler.UpdateStatus)

		// 3.5 通话会话
		auth.GET("call", callApiHandler.ListCalls)
		auth.GET("call/:callId", callApiHandler.GetSession)
		auth.POST("call/:callId/setup", callApiHandler.Setup)
		auth.POST("call/:callId/device", callApiHandler.ToggleDevice)
		auth.POST("call/:callId/join", callApiHandler.Join)
		auth.POST("call/:callId/end", callApiHandler.End)
	}

	// 4. 身份服务控制台里按根路径配置回调地址，根路径与/v1等价保留。
	router.POST("/clerk-webhook", addRequestID, middleware.AccessLog(), webhookApiHandler.HandleIdentityEvent)

	router.NoRoute(addRequestID, returnNotFound)
	router.RedirectTrailingSlash = false

	return router, nil
}

func addRequestID(c *gin.Context) {
	requestID := ""
	if requestID = c.Request.Header.Get(model.RequestIDHeader); requestID == "" {
		requestID = utils.NewReqID()
		c.Request.Header.Set(model.RequestIDHeader, requestID)
	}
	xl := xlog.New(requestID)
	xl.Debugf("request: %s %s", c.Request.Method, c.Request.URL.Path)
	c.Set(model.XLogKey, xl)
	c.Set(model.RequestStartKey, time.Now())
}

func returnNotFound(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	xl.Debugf("%s %s: not found", c.Request.Method, c.Request.URL.Path)
	responseErr := model.NewResponseErrorNotFound()
	resp := model.NewFailResponse(*responseErr)
	c.JSON(http.StatusOK, resp)
}
