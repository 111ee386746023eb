package model

type ResponseError struct {
	// 自定义错误码。
	Code int `json:"code"`
	// 请求ID。
	RequestID string `json:"requestID"`
	// Message
	Message string `json:"message"`
}

const (
	ResponseErrorBadRequest      = 400000
	ResponseErrorNotLoggedIn     = 401001
	ResponseErrorBadToken        = 401003
	ResponseErrorValidation      = 401005
	ResponseErrorNoPermission    = 403001
	ResponseErrorNoSuchUser      = 404001
	ResponseErrorNoSuchInterview = 404002
	ResponseErrorNoSuchSession   = 404003
	ResponseErrorNotFound        = 404000
	ResponseErrorCallIDUsed      = 409001
	ResponseErrorInternal        = 500000
	ResponseErrorExternalService = 502001
	ResponseErrorDeviceDisabled  = 423001
)

// NewResponseErrorBadRequest 参数错误。
func NewResponseErrorBadRequest() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorBadRequest,
		Message: "参数错误",
	}
}

// NewResponseErrorNotLoggedIn 用户未登录。
func NewResponseErrorNotLoggedIn() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNotLoggedIn,
		Message: "not logged in",
	}
}

// NewResponseErrorBadToken 登录token错误。
func NewResponseErrorBadToken() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorBadToken,
		Message: "bad token",
	}
}

func NewResponseErrorValidation(err error) *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorValidation,
		Message: err.Error(),
	}
}

// NewResponseErrorNoPermission 无操作权限。
func NewResponseErrorNoPermission() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNoPermission,
		Message: "no permission",
	}
}

// NewResponseErrorNoSuchUser 无此用户。
func NewResponseErrorNoSuchUser() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNoSuchUser,
		Message: "no such user",
	}
}

// NewResponseErrorNoSuchInterview 无此面试。
func NewResponseErrorNoSuchInterview() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNoSuchInterview,
		Message: "no such interview",
	}
}

// NewResponseErrorNoSuchSession 无此通话会话。
func NewResponseErrorNoSuchSession() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNoSuchSession,
		Message: "no such call session",
	}
}

// NewResponseErrorCallIDUsed callId已被其他面试占用。
func NewResponseErrorCallIDUsed() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorCallIDUsed,
		Message: "call id already in use",
	}
}

// NewResponseErrorInternal 其他内部服务错误。
func NewResponseErrorInternal() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorInternal,
		Message: "internal server error",
	}
}

// NewResponseErrorExternalService 调用外部服务错误。
func NewResponseErrorExternalService() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorExternalService,
		Message: "calling external service failed",
	}
}

func NewResponseErrorNotFound() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNotFound,
		Message: "not found",
	}
}

func NewResponseError(code int, message string) *ResponseError {
	return &ResponseError{
		Code:    code,
		Message: message,
	}
}
