package form

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/solutions/interview-cube/internal/protodef/model"
)

const (
	ErrTitleMsg  = "标题过长"
	ErrTimeMsg   = "时间需至少大于当前时间"
	ErrCallIDMsg = "callId不可为空"
)

// InterviewCreateForm 创建面试的参数。CallID由调用方指定，全局唯一。
type InterviewCreateForm struct {
	Title          string   `json:"title" form:"title"`
	Description    string   `json:"description" form:"description"`
	StartTime      int64    `json:"startTime" form:"startTime"`
	CallID         string   `json:"callId" form:"callId"`
	CandidateID    string   `json:"candidateId" form:"candidateId"`
	InterviewerIDs []string `json:"interviewerIds" form:"interviewerIds"`
}

func (i *InterviewCreateForm) Validate() error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.Title, validation.Required, validation.Length(0, 100).Error(ErrTitleMsg)),
		validation.Field(&i.CallID, validation.Required.Error(ErrCallIDMsg)),
		validation.Field(&i.CandidateID, validation.Required),
		validation.Field(&i.StartTime, validation.Min(time.Now().Unix()).Error(ErrTimeMsg)),
	)
	return err
}

// Interview 由表单生成存储对象，ID与时间戳由存储层填充。
func (i *InterviewCreateForm) Interview(creator string) *model.InterviewDo {
	return &model.InterviewDo{
		Title:          i.Title,
		Description:    i.Description,
		StartTime:      time.Unix(i.StartTime, 0),
		Status:         model.InterviewStatusScheduled,
		CallID:         i.CallID,
		CandidateID:    i.CandidateID,
		InterviewerIDs: i.InterviewerIDs,
		Creator:        creator,
	}
}

// StatusUpdateForm 更新面试状态的参数。
type StatusUpdateForm struct {
	Status string `json:"status" form:"status"`
}

func (s *StatusUpdateForm) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Status, validation.Required),
	)
}
