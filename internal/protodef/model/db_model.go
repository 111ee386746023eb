package model

import (
	"time"
)

/*
	db_model.go: 规定数据存储的格式。
*/

type UserRole string

const (
	UserRoleCandidate   UserRole = "candidate"
	UserRoleInterviewer UserRole = "interviewer"
)

// SystemActorID 定时任务等系统内部操作使用的用户ID，跳过参与者鉴权。
const SystemActorID = "system"

// UserDo 用户账号信息，由身份服务的变更事件同步而来。
type UserDo struct {
	// 身份服务分配的subject ID，作为数据库唯一标识。
	ID string `json:"id" bson:"_id"`
	// 邮箱，取身份服务主邮箱。
	Email string `json:"email" bson:"email"`
	// 用户昵称
	Name string `json:"name" bson:"name"`
	// Avatar 头像URL地址
	Avatar string `json:"avatar,omitempty" bson:"avatar,omitempty"`
	// Role 用户角色，candidate/interviewer。
	Role string `json:"role" bson:"role"`
	// RegisterTime 首次同步时间。
	RegisterTime time.Time `json:"registerTime" bson:"registerTime"`
	// LastSyncTime 上次同步时间。
	LastSyncTime time.Time `json:"lastSyncTime" bson:"lastSyncTime"`
}

// UpsertRole 决定一次upsert写入的角色。已存在的用户跟随事件携带的角色，
// 新建用户忽略事件角色，固定写入默认角色。
func UpsertRole(exists bool, implied, defaultRole string) string {
	if exists {
		return implied
	}
	if defaultRole == "" {
		return string(UserRoleCandidate)
	}
	return defaultRole
}

const (
	InterviewStatusScheduled = "scheduled"
	InterviewStatusLive      = "live"
	InterviewStatusCompleted = "completed"
	InterviewStatusCancelled = "cancelled"
)

// InterviewDo 面试信息。Status 为开放字符串，已知值见上方常量。
// EndTime 仅在状态变为 completed 时写入，且只写一次。
type InterviewDo struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	StartTime   time.Time `json:"startTime" bson:"startTime"`
	EndTime     time.Time `json:"endTime,omitempty" bson:"endTime,omitempty"`
	Status      string    `json:"status" bson:"status"`
	// CallID 关联视频通话的唯一标识，创建时由调用方指定，全局唯一且不可变。
	CallID      string `json:"callId" bson:"callId"`
	CandidateID string `json:"candidateId" bson:"candidateId"`
	// InterviewerIDs 面试官列表，保持传入顺序。
	InterviewerIDs []string  `json:"interviewerIds" bson:"interviewerIds"`
	Creator        string    `json:"creator" bson:"creator"`
	CreateTime     time.Time `json:"createTime" bson:"createTime"`
	UpdateTime     time.Time `json:"updateTime" bson:"updateTime"`
}

// HasParticipant 判断用户是否为该面试的参与者（候选人、面试官或创建者）。
func (i *InterviewDo) HasParticipant(userID string) bool {
	if userID == i.CandidateID || userID == i.Creator {
		return true
	}
	for _, id := range i.InterviewerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
