package call

import (
	goerrors "errors"
	"testing"
	"time"

	"github.com/qiniu/x/xlog"

	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
	"github.com/solutions/interview-cube/internal/service/cloud"
)

type fakeInterviewStore struct {
	interviews map[string]*model.InterviewDo
}

func newFakeInterviewStore(interviews ...*model.InterviewDo) *fakeInterviewStore {
	s := &fakeInterviewStore{interviews: map[string]*model.InterviewDo{}}
	for _, interview := range interviews {
		s.interviews[interview.ID] = interview
	}
	return s
}

func (s *fakeInterviewStore) GetInterviewByCallID(xl *xlog.Logger, callID string) (*model.InterviewDo, error) {
	for _, interview := range s.interviews {
		if interview.CallID == callID {
			return interview, nil
		}
	}
	return nil, &errors2.ServerError{Code: errors2.ServerErrorInterviewNotFound}
}

func (s *fakeInterviewStore) SetStatus(xl *xlog.Logger, interviewID, status, actorID string) (*model.InterviewDo, error) {
	interview, ok := s.interviews[interviewID]
	if !ok {
		return nil, &errors2.ServerError{Code: errors2.ServerErrorInterviewNotFound}
	}
	if actorID != model.SystemActorID && !interview.HasParticipant(actorID) {
		return nil, &errors2.ServerError{Code: errors2.ServerErrorUserNoPermission}
	}
	now := time.Now()
	if status == model.InterviewStatusCompleted {
		if interview.Status != model.InterviewStatusCompleted {
			interview.Status = status
			interview.EndTime = now
		}
		return interview, nil
	}
	interview.Status = status
	interview.UpdateTime = now
	return interview, nil
}

func testInterview() *model.InterviewDo {
	return &model.InterviewDo{
		ID:             "iv_1",
		Title:          "backend interview",
		Status:         model.InterviewStatusScheduled,
		CallID:         "call_1",
		CandidateID:    "candidate_1",
		InterviewerIDs: []string{"interviewer_1"},
		Creator:        "creator_1",
	}
}

func newTestController(interviews ...*model.InterviewDo) (*Controller, *fakeInterviewStore) {
	store := newFakeInterviewStore(interviews...)
	calls := cloud.NewMockCallService(store)
	return NewController(calls, store, nil), store
}

func deviceReport() []cloud.MediaDevice {
	return []cloud.MediaDevice{
		{Kind: model.DeviceKindCamera, Label: "FaceTime HD"},
		{Kind: model.DeviceKindMicrophone, Label: "Built-in"},
	}
}

func grantedPermissions() map[string]string {
	return map[string]string{"camera": "granted", "microphone": "granted"}
}

func TestSetupAndToggle(t *testing.T) {
	controller, _ := newTestController(testInterview())
	session, err := controller.Setup(nil, "call_1", "candidate_1", deviceReport(), grantedPermissions())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if session.State() != model.SessionStateSetup {
		t.Errorf("expect state setup, got %s", session.State())
	}
	session, err = controller.Toggle(nil, "call_1", "candidate_1", model.DeviceKindCamera, true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if session.DeviceState(model.DeviceKindCamera) != model.DeviceStateEnabled {
		t.Errorf("expect camera enabled, got %s", session.DeviceState(model.DeviceKindCamera))
	}
	if session.DeviceState(model.DeviceKindMicrophone) != model.DeviceStateDisabled {
		t.Errorf("expect microphone untouched, got %s", session.DeviceState(model.DeviceKindMicrophone))
	}
}

func TestToggleDeniedLeavesNotice(t *testing.T) {
	controller, _ := newTestController(testInterview())
	permissions := grantedPermissions()
	permissions["camera"] = "denied"
	session, err := controller.Setup(nil, "call_1", "candidate_1", deviceReport(), permissions)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	_, err = controller.Toggle(nil, "call_1", "candidate_1", model.DeviceKindCamera, true)
	if !errors2.IsCode(err, errors2.ServerErrorMediaPermissionDenied) {
		t.Fatalf("expect permission denied, got %v", err)
	}
	notices := session.DrainNotices()
	if len(notices) != 1 {
		t.Fatalf("expect one notice, got %v", notices)
	}
	if again := session.DrainNotices(); len(again) != 0 {
		t.Errorf("expect notices drained, got %v", again)
	}
}

func TestToggleWithoutSetup(t *testing.T) {
	controller, _ := newTestController(testInterview())
	_, err := controller.Toggle(nil, "call_1", "candidate_1", model.DeviceKindCamera, true)
	if !errors2.IsCode(err, errors2.ServerErrorSessionNotFound) {
		t.Fatalf("expect session not found, got %v", err)
	}
}

func TestJoinTransitionsToJoined(t *testing.T) {
	controller, _ := newTestController(testInterview())
	joined := ""
	controller.OnJoin = func(xl *xlog.Logger, callID, userID string) {
		joined = callID + "/" + userID
	}
	if _, err := controller.Setup(nil, "call_1", "candidate_1", deviceReport(), grantedPermissions()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	token, session, err := controller.Join(nil, "call_1", "candidate_1")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if token == "" {
		t.Error("expect non-empty room token")
	}
	if session.State() != model.SessionStateJoined {
		t.Errorf("expect state joined, got %s", session.State())
	}
	if joined != "call_1/candidate_1" {
		t.Errorf("expect OnJoin hook called, got %q", joined)
	}
}

func TestJoinWithoutSetup(t *testing.T) {
	controller, _ := newTestController(testInterview())
	_, _, err := controller.Join(nil, "call_1", "candidate_1")
	if !errors2.IsCode(err, errors2.ServerErrorSessionNotFound) {
		t.Fatalf("expect session not found, got %v", err)
	}
}

func TestSetupSurvivesReload(t *testing.T) {
	controller, _ := newTestController(testInterview())
	if _, err := controller.Setup(nil, "call_1", "candidate_1", deviceReport(), grantedPermissions()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if _, _, err := controller.Join(nil, "call_1", "candidate_1"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	// 页面重新加载后重新上报设备，已加入状态保留。
	session, err := controller.Setup(nil, "call_1", "candidate_1", deviceReport(), grantedPermissions())
	if err != nil {
		t.Fatalf("re-setup failed: %v", err)
	}
	if session.State() != model.SessionStateJoined {
		t.Errorf("expect joined state preserved, got %s", session.State())
	}
}

func TestCanEndCall(t *testing.T) {
	controller, _ := newTestController(testInterview())
	if controller.CanEndCall(nil, "call_1", "creator_1") {
		t.Error("call creator must not have the end-call capability")
	}
	if !controller.CanEndCall(nil, "call_1", "candidate_1") {
		t.Error("expect non-creator participant to have the end-call capability")
	}
	if !controller.CanEndCall(nil, "call_1", "interviewer_1") {
		t.Error("expect interviewer to have the end-call capability")
	}
	if controller.CanEndCall(nil, "call_without_interview", "candidate_1") {
		t.Error("expect no capability when the call has no interview")
	}
}

func TestEndCallCompletesInterview(t *testing.T) {
	interview := testInterview()
	controller, store := newTestController(interview)
	if _, err := controller.Setup(nil, "call_1", "candidate_1", deviceReport(), grantedPermissions()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res := controller.EndCall(nil, "call_1", "candidate_1")
	if !res.CallEnded || !res.InterviewCompleted || !res.Redirect {
		t.Fatalf("unexpected result %+v", res)
	}
	if interview.Status != model.InterviewStatusCompleted {
		t.Errorf("expect interview completed, got %s", interview.Status)
	}
	if interview.EndTime.IsZero() {
		t.Error("expect endTime recorded")
	}
	firstEnd := interview.EndTime

	// 重复结束是幂等的，endTime不被覆盖。
	res = controller.EndCall(nil, "call_1", "candidate_1")
	if !res.Redirect {
		t.Error("expect redirect on repeated end")
	}
	if store.interviews["iv_1"].EndTime != firstEnd {
		t.Error("expect endTime unchanged on repeated end")
	}
}

func TestEndCallFailOpen(t *testing.T) {
	interview := testInterview()
	controller, _ := newTestController(interview)
	store := controller.calls.(*cloud.MockCallService)
	rawCall, err := store.GetCall(nil, "call_1")
	if err != nil {
		t.Fatalf("get call failed: %v", err)
	}
	rawCall.(*cloud.MockCall).EndErr = goerrors.New("rtc unavailable")

	res := controller.EndCall(nil, "call_1", "interviewer_1")
	if res.CallEnded {
		t.Error("expect call end step to fail")
	}
	if !res.InterviewCompleted {
		t.Error("expect interview completion despite call end failure")
	}
	if !res.Redirect {
		t.Error("expect redirect even on partial failure")
	}
	if res.Message == "" {
		t.Error("expect failure message")
	}
	if interview.Status != model.InterviewStatusCompleted {
		t.Errorf("expect interview completed, got %s", interview.Status)
	}
}

func TestEndCallMarksSessionsEnded(t *testing.T) {
	controller, _ := newTestController(testInterview())
	session, err := controller.Setup(nil, "call_1", "candidate_1", deviceReport(), grantedPermissions())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	controller.EndCall(nil, "call_1", "interviewer_1")
	if session.State() != model.SessionStateEnded {
		t.Errorf("expect session ended, got %s", session.State())
	}
	if _, err := controller.GetSession(nil, "call_1", "candidate_1"); !errors2.IsCode(err, errors2.ServerErrorSessionNotFound) {
		t.Errorf("expect session removed, got %v", err)
	}
}
