package task

import (
	"time"

	"github.com/qiniu/x/log"

	"github.com/solutions/interview-cube/internal/common/utils"
	model "github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/cloud"
	"github.com/solutions/interview-cube/internal/service/db"
)

const (
	// ReconcileBatchSize 单次对账处理的面试数量上限。
	ReconcileBatchSize = 10
	// StaleInterviewTimeout 超过该时长仍未结束的面试直接标记完成。
	StaleInterviewTimeout = 24 * time.Hour
)

// ReconcileTask 面试状态对账任务。客户端崩溃或断网时结束通话的两步操作
// 可能只完成一半，该任务周期性将通话已空或长期滞留的面试补记为completed。
type ReconcileTask struct {
	interviewService *db.InterviewService
	callService      cloud.CallService
}

func NewReconcileTask(conf utils.Config) (*ReconcileTask, error) {
	interviewService, err := db.NewInterviewService(*conf.Mongo, nil)
	if err != nil {
		log.Errorf("failed to create interview service, error %v", err)
		return nil, err
	}
	return &ReconcileTask{
		interviewService: interviewService,
		callService:      cloud.NewCallService(conf, interviewService, nil),
	}, nil
}

// Run 扫描未结束的面试，对满足条件的补记completed状态。
func (t *ReconcileTask) Run() {
	log.Infof("interview reconcile run at %s", time.Now().String())

	interviews, err := t.interviewService.ListOpenInterviews(nil, ReconcileBatchSize)
	if err != nil {
		log.Errorf("reconcile failed to list open interviews, error %v", err)
		return
	}
	for _, interview := range interviews {
		if !t.shouldComplete(&interview) {
			continue
		}
		log.Infof("reconcile completing interview %s, status %s, startTime %s", interview.ID, interview.Status, interview.StartTime)
		_, err := t.interviewService.SetStatus(nil, interview.ID, model.InterviewStatusCompleted, model.SystemActorID)
		if err != nil {
			log.Errorf("reconcile failed to complete interview %s, error %v", interview.ID, err)
		}
	}
}

func (t *ReconcileTask) shouldComplete(interview *model.InterviewDo) bool {
	now := time.Now()
	if now.After(interview.CreateTime.Add(StaleInterviewTimeout)) {
		return true
	}
	// 只有进入live的面试才看通话成员，避免把尚未开始的面试标记完成。
	if interview.Status != model.InterviewStatusLive {
		return false
	}
	call, err := t.callService.GetCall(nil, interview.CallID)
	if err != nil {
		log.Errorf("reconcile failed to get call %s, error %v", interview.CallID, err)
		return false
	}
	return call.Ended(nil)
}
