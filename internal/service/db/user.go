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

// UserService 身份同步的落库操作。用户记录只经由UpsertUser创建和更新，
// 身份服务的删除事件不在此处理。
type UserService struct {
	mongoClient *mgo.Session
	userColl    *mgo.Collection
	defaultRole string
	xl          *xlog.Logger
}

func NewUserService(conf utils.MongoConfig, defaultRole string, xl *xlog.Logger) (*UserService, error) {
	if xl == nil {
		xl = xlog.New("interview-cube-user-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	userColl := mongoClient.DB(conf.Database).C(dao.CollectionUser)
	if defaultRole == "" {
		defaultRole = string(model.UserRoleCandidate)
	}
	return &UserService{
		mongoClient: mongoClient,
		userColl:    userColl,
		defaultRole: defaultRole,
		xl:          xl,
	}, nil
}

// UpsertUser 按身份服务subject id插入或更新用户。已存在时更新
// 邮箱/昵称/头像/角色；不存在时插入，角色取默认角色而非事件角色。
// 相同输入重复调用收敛到相同的存储结果。
func (c *UserService) UpsertUser(xl *xlog.Logger, subjectID, email, name, avatar, impliedRole string) (*model.UserDo, error) {
	if xl == nil {
		xl = c.xl
	}
	now := time.Now()
	existing, err := c.GetUserByID(xl, subjectID)
	if err != nil && !errors2.IsCode(err, errors2.ServerErrorUserNotFound) {
		return nil, err
	}
	exists := err == nil
	user := &model.UserDo{
		ID:     subjectID,
		Email:  email,
		Name:   name,
		Avatar: avatar,
		Role:   model.UpsertRole(exists, impliedRole, c.defaultRole),
	}
	if exists {
		user.RegisterTime = existing.RegisterTime
		user.LastSyncTime = now
		err = c.userColl.Update(bson.M{"_id": subjectID}, bson.M{"$set": user})
		if err != nil {
			xl.Errorf("failed to update user %s, error %v", subjectID, err)
			return nil, err
		}
		xl.Infof("user %s updated via identity sync", subjectID)
		return user, nil
	}
	user.RegisterTime = now
	user.LastSyncTime = now
	err = c.userColl.Insert(user)
	if err != nil {
		if mgo.IsDup(err) {
			// 并发的同一事件已插入，按更新重放一次。
			return c.UpsertUser(xl, subjectID, email, name, avatar, impliedRole)
		}
		xl.Errorf("failed to insert user %s, error %v", subjectID, err)
		return nil, err
	}
	xl.Infof("user %s created via identity sync, role %s", subjectID, user.Role)
	return user, nil
}

// GetUserByID 使用身份服务subject id查找用户。
func (c *UserService) GetUserByID(xl *xlog.Logger, id string) (*model.UserDo, error) {
	return c.GetUserByFields(xl, map[string]interface{}{"_id": id})
}

// GetUserByFields 根据一组key/value关系查找用户。
func (c *UserService) GetUserByFields(xl *xlog.Logger, fields map[string]interface{}) (*model.UserDo, error) {
	if xl == nil {
		xl = c.xl
	}
	user := model.UserDo{}
	err := c.userColl.Find(fields).One(&user)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("no such user for fields %v", fields)
			return nil, &errors2.ServerError{Code: errors2.ServerErrorUserNotFound}
		}
		xl.Errorf("failed to get user, error %v", fields)
		return nil, err
	}
	return &user, nil
}

func (c *UserService) ListAll(xl *xlog.Logger) ([]model.UserDo, error) {
	if xl == nil {
		xl = c.xl
	}
	results := make([]model.UserDo, 0)
	err := c.userColl.Find(nil).All(&results)
	if err != nil {
		xl.Errorf("failed to list users, error %v", err)
		return nil, err
	}
	return results, nil
}
