package cloud

import (
	"testing"
	"time"

	"github.com/qiniu/x/xlog"

	errors2 "github.com/solutions/interview-cube/internal/protodef/errors"
	model "github.com/solutions/interview-cube/internal/protodef/model"
)

// stubMetaSource 以内存map提供通话的业务元信息。
type stubMetaSource struct {
	interviews map[string]*model.InterviewDo
}

func (s *stubMetaSource) GetInterviewByCallID(xl *xlog.Logger, callID string) (*model.InterviewDo, error) {
	if interview, ok := s.interviews[callID]; ok {
		return interview, nil
	}
	return nil, &errors2.ServerError{Code: errors2.ServerErrorInterviewNotFound}
}

func newListTestService(t *testing.T) *MockCallService {
	t.Helper()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	meta := &stubMetaSource{interviews: map[string]*model.InterviewDo{
		"call_a": {ID: "iv_a", CallID: "call_a", Creator: "creator_1", StartTime: base.Add(2 * time.Hour)},
		"call_b": {ID: "iv_b", CallID: "call_b", Creator: "creator_2", StartTime: base},
		"call_c": {ID: "iv_c", CallID: "call_c", Creator: "creator_1", StartTime: base.Add(time.Hour)},
	}}
	service := NewMockCallService(meta)
	// mock实现只列举见过的通话，先逐个取出。
	for _, id := range []string{"call_a", "call_b", "call_c"} {
		if _, err := service.GetCall(nil, id); err != nil {
			t.Fatalf("failed to get call %s: %v", id, err)
		}
	}
	return service
}

func callIDs(calls []Call) []string {
	ids := make([]string, 0, len(calls))
	for _, c := range calls {
		ids = append(ids, c.ID())
	}
	return ids
}

func TestListCallsSortedByStart(t *testing.T) {
	service := newListTestService(t)
	calls, err := service.ListCalls(nil, CallFilter{})
	if err != nil {
		t.Fatalf("list calls failed: %v", err)
	}
	got := callIDs(calls)
	expect := []string{"call_b", "call_c", "call_a"}
	if len(got) != len(expect) {
		t.Fatalf("expect %d calls, got %v", len(expect), got)
	}
	for i := range expect {
		if got[i] != expect[i] {
			t.Fatalf("expect start-time order %v, got %v", expect, got)
		}
	}
}

func TestListCallsByIDs(t *testing.T) {
	service := newListTestService(t)
	calls, err := service.ListCalls(nil, CallFilter{IDs: []string{"call_a", "call_c"}})
	if err != nil {
		t.Fatalf("list calls failed: %v", err)
	}
	got := callIDs(calls)
	if len(got) != 2 || got[0] != "call_c" || got[1] != "call_a" {
		t.Errorf("expect [call_c call_a], got %v", got)
	}
	// 未见过的ID不报错，直接略过。
	calls, err = service.ListCalls(nil, CallFilter{IDs: []string{"call_b", "call_unknown"}})
	if err != nil {
		t.Fatalf("list calls failed: %v", err)
	}
	if got := callIDs(calls); len(got) != 1 || got[0] != "call_b" {
		t.Errorf("expect [call_b], got %v", got)
	}
}

func TestListCallsByMember(t *testing.T) {
	service := newListTestService(t)
	call, err := service.GetCall(nil, "call_c")
	if err != nil {
		t.Fatalf("get call failed: %v", err)
	}
	if _, err := call.Join(nil, "user_1"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	calls, err := service.ListCalls(nil, CallFilter{Member: "user_1"})
	if err != nil {
		t.Fatalf("list calls failed: %v", err)
	}
	if got := callIDs(calls); len(got) != 1 || got[0] != "call_c" {
		t.Errorf("expect only the joined call, got %v", got)
	}
}

func TestListCallsByTimeRange(t *testing.T) {
	service := newListTestService(t)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	calls, err := service.ListCalls(nil, CallFilter{StartedAfter: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("list calls failed: %v", err)
	}
	if got := callIDs(calls); len(got) != 2 || got[0] != "call_c" || got[1] != "call_a" {
		t.Errorf("expect [call_c call_a], got %v", got)
	}

	calls, err = service.ListCalls(nil, CallFilter{StartedBefore: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("list calls failed: %v", err)
	}
	if got := callIDs(calls); len(got) != 2 || got[0] != "call_b" || got[1] != "call_c" {
		t.Errorf("expect [call_b call_c], got %v", got)
	}

	calls, err = service.ListCalls(nil, CallFilter{
		StartedAfter:  base.Add(30 * time.Minute),
		StartedBefore: base.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("list calls failed: %v", err)
	}
	if got := callIDs(calls); len(got) != 1 || got[0] != "call_c" {
		t.Errorf("expect [call_c], got %v", got)
	}
}
