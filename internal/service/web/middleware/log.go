package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	model "github.com/solutions/interview-cube/internal/protodef/model"
)

// AccessLog 记录每次请求的方法、路径、用户与耗时。
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		xl := c.MustGet(model.XLogKey).(*xlog.Logger)
		elapsed := time.Duration(0)
		if start, ok := c.Get(model.RequestStartKey); ok {
			if startTime, ok := start.(time.Time); ok {
				elapsed = time.Since(startTime)
			}
		}
		userID := c.GetString(model.UserIDContextKey)
		xl.Infof("%s %s user %q status %d elapsed %s", c.Request.Method, c.Request.URL.Path, userID, c.Writer.Status(), elapsed)
	}
}
