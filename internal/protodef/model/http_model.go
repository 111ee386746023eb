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

package model

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/*
	http_model.go: 规定API的参数与返回值的定义，***Args 表示 *** 接口的参数，***Response表示 *** 接口的返回体格式。
*/

const (
	// RequestIDHeader 七牛 request ID 头部。
	RequestIDHeader = "X-Reqid"
	// XLogKey gin context中，用于获取记录请求相关日志的 xlog logger的key。
	XLogKey = "xlog-logger"

	// UserIDContextKey 存放在请求context 中的用户ID。
	UserIDContextKey = "userID"

	// RequestStartKey 存放在gin context中的请求开始的时间戳，单位为纳秒。
	RequestStartKey = "request-start-timestamp-nano"

	// WebhookIDHeader webhook事件的唯一ID。
	WebhookIDHeader = "svix-id"
	// WebhookSignatureHeader webhook签名，空格分隔的 v1,<base64> 列表。
	WebhookSignatureHeader = "svix-signature"
	// WebhookTimestampHeader webhook签名时间戳，单位为秒。
	WebhookTimestampHeader = "svix-timestamp"

	// 状态码和状态信息
	ResponseStatusCodeSuccess    ResponseStatusCode    = 0
	ResponseStatusMessageSuccess ResponseStatusMessage = "success"
)

// 状态码和状态信息
type ResponseStatusCode int
type ResponseStatusMessage string

type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"requestId"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    int(ResponseStatusCodeSuccess),
		Message: string(ResponseStatusMessageSuccess),
		Data:    data,
	}
}

func NewFailResponse(err ResponseError) *Response {
	return &Response{
		Code:    int(err.Code),
		Message: string(err.Message),
	}
}

func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

func (r *Response) WithErrorMessage(message string) *Response {
	r.Message = string(message)
	return r
}

func (r *Response) Send(c *gin.Context) {
	c.JSON(http.StatusOK, r)
}

// UserInfoResponse 用户的信息，包括ID、昵称等。
type UserInfoResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

// InterviewResponse 面试详情。
type InterviewResponse struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	StartTime      int64    `json:"startTime"`
	EndTime        int64    `json:"endTime,omitempty"`
	Status         string   `json:"status"`
	CallID         string   `json:"callId"`
	CandidateID    string   `json:"candidateId"`
	InterviewerIDs []string `json:"interviewerIds"`
	Creator        string   `json:"creator"`
}

// NewInterviewResponse 由存储对象生成返回体。EndTime为零值时不返回。
func NewInterviewResponse(interview *InterviewDo) InterviewResponse {
	resp := InterviewResponse{
		ID:             interview.ID,
		Title:          interview.Title,
		Description:    interview.Description,
		StartTime:      interview.StartTime.Unix(),
		Status:         interview.Status,
		CallID:         interview.CallID,
		CandidateID:    interview.CandidateID,
		InterviewerIDs: interview.InterviewerIDs,
		Creator:        interview.Creator,
	}
	if !interview.EndTime.IsZero() {
		resp.EndTime = interview.EndTime.Unix()
	}
	return resp
}

// InterviewListResponse 面试列表结果
type InterviewListResponse struct {
	Total int                 `json:"total"`
	List  []InterviewResponse `json:"list"`
}

// CreateInterviewResponse 创建面试的返回结果
type CreateInterviewResponse struct {
	ID string `json:"id"`
}

// SessionOptionResponse 会话可用操作。ShowEndCall 仅对非通话创建者
// 且存在对应面试记录时为true。
type SessionOptionResponse struct {
	ShowEndCall bool `json:"showEndCall"`
}

// SessionResponse 通话会话状态。
type SessionResponse struct {
	CallID     string                `json:"callId"`
	State      string                `json:"state"`
	Camera     string                `json:"camera"`
	Microphone string                `json:"microphone"`
	Options    SessionOptionResponse `json:"options"`
	// Notices 自上次查询以来待向用户展示的提示消息。
	Notices []string `json:"notices,omitempty"`
}

// JoinCallResponse 加入通话的返回结果。
type JoinCallResponse struct {
	RoomToken string `json:"roomToken"`
	State     string `json:"state"`
}

// EndCallResponse 结束通话的返回结果。通话结束与面试状态写入为两步独立操作，
// 任一步失败仍返回 Redirect=true，失败信息放入 Message。
type EndCallResponse struct {
	CallEnded          bool   `json:"callEnded"`
	InterviewCompleted bool   `json:"interviewCompleted"`
	Redirect           bool   `json:"redirect"`
	Message            string `json:"message,omitempty"`
}

// CallResponse 通话概要。
type CallResponse struct {
	CallID    string `json:"callId"`
	CreatedBy string `json:"createdBy"`
	StartTime int64  `json:"startTime,omitempty"`
}

// CallListResponse 通话列表结果
type CallListResponse struct {
	Total int            `json:"total"`
	List  []CallResponse `json:"list"`
}
