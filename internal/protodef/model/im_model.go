package model

import "time"

// IMUser IM服务侧的用户信息。
type IMUser struct {
	UserID           string    `json:"userId"`
	Username         string    `json:"username"`
	Token            string    `json:"token"`
	LastRegisterTime time.Time `json:"lastRegisterTime"`
}
