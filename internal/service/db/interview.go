package db

import (
	"time"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/solutions/interview-cube/internal/common/utils"
	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
	dao "github.com/solutions/interview-cube/internal/service/db/dao"
)

// InterviewService 面试记录的存取。callId全局唯一，由唯一索引保证。
type InterviewService struct {
	mongoClient   *mgo.Session
	interviewColl *mgo.Collection
	xl            *xlog.Logger
}

func NewInterviewService(conf utils.MongoConfig, xl *xlog.Logger) (*InterviewService, error) {
	if xl == nil {
		xl = xlog.New("interview-cube-interview-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	interviewColl := mongoClient.DB(conf.Database).C(dao.CollectionInterview)
	err = interviewColl.EnsureIndex(mgo.Index{Key: []string{"callId"}, Unique: true})
	if err != nil {
		xl.Errorf("failed to ensure unique index on callId, error %v", err)
		return nil, err
	}
	err = interviewColl.EnsureIndexKey("candidateId")
	if err != nil {
		xl.Errorf("failed to ensure index on candidateId, error %v", err)
		return nil, err
	}
	return &InterviewService{
		mongoClient:   mongoClient,
		interviewColl: interviewColl,
		xl:            xl,
	}, nil
}

// CreateInterview 创建面试。callId与已有面试冲突时返回ServerErrorCallIDUsed。
func (c *InterviewService) CreateInterview(xl *xlog.Logger, interview *model.InterviewDo) (*model.InterviewDo, error) {
	if xl == nil {
		xl = c.xl
	}
	now := time.Now()
	if interview.ID == "" {
		interview.ID = utils.GenerateID()
	}
	if interview.Status == "" {
		interview.Status = model.InterviewStatusScheduled
	}
	interview.CreateTime = now
	interview.UpdateTime = now
	err := c.interviewColl.Insert(interview)
	if err != nil {
		if mgo.IsDup(err) {
			xl.Infof("call id %s already in use", interview.CallID)
			return nil, &errors2.ServerError{Code: errors2.ServerErrorCallIDUsed}
		}
		xl.Errorf("failed to insert interview %s, error %v", interview.ID, err)
		return nil, err
	}
	xl.Infof("user %s created interview %s with call %s", interview.Creator, interview.ID, interview.CallID)
	return interview, nil
}

// ListAllInterviews 返回全部面试，顺序不作保证。
func (c *InterviewService) ListAllInterviews(xl *xlog.Logger) ([]model.InterviewDo, error) {
	if xl == nil {
		xl = c.xl
	}
	interviews := []model.InterviewDo{}
	err := c.interviewColl.Find(nil).All(&interviews)
	if err != nil {
		xl.Errorf("failed to list interviews, error %v", err)
		return nil, err
	}
	return interviews, nil
}

// ListInterviewsByCandidate 按候选人ID等值过滤。
func (c *InterviewService) ListInterviewsByCandidate(xl *xlog.Logger, candidateID string) ([]model.InterviewDo, error) {
	if xl == nil {
		xl = c.xl
	}
	interviews := []model.InterviewDo{}
	err := c.interviewColl.Find(bson.M{"candidateId": candidateID}).All(&interviews)
	if err != nil {
		xl.Errorf("failed to list interviews of candidate %s, error %v", candidateID, err)
		return nil, err
	}
	return interviews, nil
}

// ListOpenInterviews 返回仍未结束的面试（scheduled/live），按startTime排序，
// 供对账任务使用。
func (c *InterviewService) ListOpenInterviews(xl *xlog.Logger, limit int) ([]model.InterviewDo, error) {
	if xl == nil {
		xl = c.xl
	}
	if limit <= 0 {
		limit = 10
	}
	interviews := []model.InterviewDo{}
	condition := bson.M{"status": bson.M{"$in": []string{model.InterviewStatusScheduled, model.InterviewStatusLive}}}
	err := c.interviewColl.Find(condition).Sort("startTime").Limit(limit).All(&interviews)
	if err != nil {
		xl.Errorf("failed to list open interviews, error %v", err)
		return nil, err
	}
	return interviews, nil
}

// GetInterviewByFields 根据一组 key/value 关系查找面试。
func (c *InterviewService) GetInterviewByFields(xl *xlog.Logger, fields map[string]interface{}) (*model.InterviewDo, error) {
	if xl == nil {
		xl = c.xl
	}
	interview := model.InterviewDo{}
	err := c.interviewColl.Find(fields).One(&interview)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("no such interview for fields %v", fields)
			return nil, &errors2.ServerError{Code: errors2.ServerErrorInterviewNotFound}
		}
		xl.Errorf("failed to get interview, error %v", fields)
		return nil, err
	}
	return &interview, nil
}

func (c *InterviewService) GetInterviewByID(xl *xlog.Logger, interviewID string) (*model.InterviewDo, error) {
	return c.GetInterviewByFields(xl, map[string]interface{}{"_id": interviewID})
}

// GetInterviewByCallID 按callId查找面试。callId上有唯一索引，至多返回一条。
// 通话接入前无法确认调用方身份，此查询不做鉴权。
func (c *InterviewService) GetInterviewByCallID(xl *xlog.Logger, callID string) (*model.InterviewDo, error) {
	return c.GetInterviewByFields(xl, map[string]interface{}{"callId": callID})
}

// SetStatus 变更面试状态。actorID须为该面试参与者或model.SystemActorID。
// 状态与endTime在一次写入中落库：仅当新状态为completed时写入endTime。
// 对已completed的面试重复设置completed是幂等的no-op，endTime保持不变。
func (c *InterviewService) SetStatus(xl *xlog.Logger, interviewID, status, actorID string) (*model.InterviewDo, error) {
	if xl == nil {
		xl = c.xl
	}
	interview, err := c.GetInterviewByID(xl, interviewID)
	if err != nil {
		return nil, err
	}
	if actorID != model.SystemActorID && !interview.HasParticipant(actorID) {
		xl.Infof("user %s has no permission on interview %s", actorID, interviewID)
		return nil, &errors2.ServerError{Code: errors2.ServerErrorUserNoPermission}
	}
	now := time.Now()
	if status == model.InterviewStatusCompleted {
		if interview.Status == model.InterviewStatusCompleted {
			xl.Infof("interview %s already completed", interviewID)
			return interview, nil
		}
		// selector限定未完成状态，防止并发重复完成时覆盖endTime。
		err = c.interviewColl.Update(
			bson.M{"_id": interviewID, "status": bson.M{"$ne": model.InterviewStatusCompleted}},
			bson.M{"$set": StatusChange(status, now)},
		)
		if err == mgo.ErrNotFound {
			xl.Infof("interview %s completed concurrently", interviewID)
			return c.GetInterviewByID(xl, interviewID)
		}
	} else {
		err = c.interviewColl.Update(bson.M{"_id": interviewID}, bson.M{"$set": StatusChange(status, now)})
	}
	if err != nil {
		xl.Errorf("failed to update status of interview %s, error %v", interviewID, err)
		return nil, err
	}
	xl.Infof("interview %s status -> %s by %s", interviewID, status, actorID)
	return c.GetInterviewByID(xl, interviewID)
}

// StatusChange 组装一次状态变更写入的字段。endTime仅在completed时出现，
// 保证状态与结束时间原子落库。
func StatusChange(status string, now time.Time) bson.M {
	change := bson.M{
		"status":     status,
		"updateTime": now,
	}
	if status == model.InterviewStatusCompleted {
		change["endTime"] = now
	}
	return change
}
