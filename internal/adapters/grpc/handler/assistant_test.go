package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/assistant"
	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
	"github.com/ogurasousui/planner-assistant/internal/core/tool"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubAssistant struct {
	turnInput assistant.TurnRequest
	turnOut   *assistant.Response
	turnErr   error

	invokeCompany string
	invokeName    string
	invokeArgs    tool.Args
	invokeOut     *tool.Result
	invokeErr     error

	tools []*tool.Tool

	history        []*conversation.Message
	historyCompany string

	clearedCompany string
	clearedSession string
	clearErr       error
}

func (s *stubAssistant) HandleTurn(_ context.Context, req assistant.TurnRequest) (*assistant.Response, error) {
	s.turnInput = req
	return s.turnOut, s.turnErr
}

func (s *stubAssistant) Invoke(_ context.Context, companyID, name string, args tool.Args) (*tool.Result, error) {
	s.invokeCompany, s.invokeName, s.invokeArgs = companyID, name, args
	return s.invokeOut, s.invokeErr
}

func (s *stubAssistant) Tools() []*tool.Tool {
	return s.tools
}

func (s *stubAssistant) History(_ context.Context, companyID, _ string) ([]*conversation.Message, error) {
	s.historyCompany = companyID
	return s.history, nil
}

func (s *stubAssistant) ClearSession(_ context.Context, companyID, sessionID string) error {
	s.clearedCompany, s.clearedSession = companyID, sessionID
	return s.clearErr
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct returned error: %v", err)
	}
	return s
}

func withCompany(companyID string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(CompanyMetadataKey, companyID))
}

func TestAssistantGrpcHandler_HandleTurn(t *testing.T) {
	t.Parallel()

	stub := &stubAssistant{turnOut: &assistant.Response{
		SessionID:           "s1",
		State:               assistant.StateResponding,
		Outcome:             assistant.OutcomeClarification,
		Kind:                tool.KindMissingParameter,
		Tool:                "create-assignment",
		ClarificationNeeded: true,
		MissingParameter:    "projectId",
		Message:             "which project?",
		Trace:               []assistant.State{assistant.StateAwaitingIntent, assistant.StateResolvingParameters, assistant.StateResponding},
	}}
	h := NewAssistantGrpcHandler(stub)

	req := mustStruct(t, map[string]any{
		"sessionId": "s1",
		"message":   "assign Anna",
		"intent": map[string]any{
			"tool":   "create-assignment",
			"params": map[string]any{"employeeId": "e1"},
		},
	})

	resp, err := h.HandleTurn(withCompany("company-1"), req)
	if err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}

	if stub.turnInput.CompanyID != "company-1" || stub.turnInput.SessionID != "s1" {
		t.Errorf("unexpected turn input: %+v", stub.turnInput)
	}
	if stub.turnInput.Intent == nil || stub.turnInput.Intent.Tool != "create-assignment" || stub.turnInput.Intent.Params["employeeId"] != "e1" {
		t.Errorf("unexpected intent: %+v", stub.turnInput.Intent)
	}

	out := resp.AsMap()
	if out["missingParameter"] != "projectId" || out["clarificationNeeded"] != true {
		t.Errorf("unexpected response: %v", out)
	}
	if trace, ok := out["trace"].([]any); !ok || len(trace) != 3 {
		t.Errorf("unexpected trace: %v", out["trace"])
	}
}

func TestAssistantGrpcHandler_HandleTurnWithoutIntent(t *testing.T) {
	t.Parallel()

	stub := &stubAssistant{turnOut: &assistant.Response{SessionID: "s1", Outcome: assistant.OutcomeUnsupported}}
	h := NewAssistantGrpcHandler(stub)

	if _, err := h.HandleTurn(context.Background(), mustStruct(t, map[string]any{"sessionId": "s1", "message": "hi"})); err != nil {
		t.Fatalf("HandleTurn returned error: %v", err)
	}
	if stub.turnInput.Intent != nil {
		t.Fatalf("expected no intent, got %+v", stub.turnInput.Intent)
	}
}

func TestAssistantGrpcHandler_InvokeToolErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", employee.ErrEmployeeNotFound, codes.NotFound},
		{"double booked", schedule.ErrDoubleBooked, codes.AlreadyExists},
		{"weekend", schedule.ErrWeekend, codes.FailedPrecondition},
		{"missing", &tool.MissingParameterError{Tool: "create-assignment", Param: "projectId"}, codes.InvalidArgument},
		{"unknown tool", tool.ErrUnknownTool, codes.Unimplemented},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
	}
	for _, tc := range cases {
		stub := &stubAssistant{invokeErr: tc.err}
		h := NewAssistantGrpcHandler(stub)

		_, err := h.InvokeTool(withCompany("company-1"), mustStruct(t, map[string]any{"tool": "create-assignment"}))
		if status.Code(err) != tc.want {
			t.Errorf("%s: expected %s, got %v", tc.name, tc.want, err)
		}
	}
}

func TestToStatusError_HidesInternalDetails(t *testing.T) {
	t.Parallel()

	err := toStatusError(&net.OpError{Op: "dial", Net: "tcp", Err: context.Canceled})
	if status.Code(err) != codes.Canceled {
		t.Fatalf("expected Canceled, got %v", err)
	}

	err = toStatusError(&net.AddrError{Err: "connection string leaked", Addr: "db"})
	st, _ := status.FromError(err)
	if st.Code() != codes.Internal || st.Message() != "internal error" {
		t.Fatalf("expected generic internal error, got %v", err)
	}
}

func TestAssistantGrpcHandler_InvokeToolRequiresName(t *testing.T) {
	t.Parallel()

	h := NewAssistantGrpcHandler(&stubAssistant{})
	_, err := h.InvokeTool(context.Background(), mustStruct(t, map[string]any{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestAssistantGrpcHandler_ClearSession(t *testing.T) {
	t.Parallel()

	stub := &stubAssistant{}
	h := NewAssistantGrpcHandler(stub)

	if _, err := h.ClearSession(withCompany("company-2"), mustStruct(t, map[string]any{"sessionId": "s1"})); err != nil {
		t.Fatalf("ClearSession returned error: %v", err)
	}
	if stub.clearedCompany != "company-2" || stub.clearedSession != "s1" {
		t.Fatalf("expected company-2/s1 to be cleared, got %q/%q", stub.clearedCompany, stub.clearedSession)
	}

	stub.clearErr = conversation.ErrInvalidSessionID
	if _, err := h.ClearSession(context.Background(), mustStruct(t, map[string]any{})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestAssistantService_OverBufconn(t *testing.T) {
	t.Parallel()

	stub := &stubAssistant{
		invokeOut: &tool.Result{
			Summary: "1 assignment(s) created",
			Records: []map[string]any{{"id": "a-1", "employeeId": "e1", "projectId": "p1", "date": "2024-03-04"}},
		},
		tools: []*tool.Tool{{Name: "week-bounds", Params: []tool.Param{{Name: "date", Type: tool.TypeDate, Required: true}}}},
		history: []*conversation.Message{
			{ID: "m-1", Sender: conversation.SenderUser, Text: "hi", Timestamp: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		},
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterAssistantServiceServer(srv, NewAssistantGrpcHandler(stub))
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer conn.Close()

	ctx := metadata.AppendToOutgoingContext(context.Background(), CompanyMetadataKey, "company-1")

	out := new(structpb.Struct)
	in := mustStruct(t, map[string]any{"tool": "create-assignment", "params": map[string]any{"employeeId": "e1"}})
	if err := conn.Invoke(ctx, AssistantService_InvokeTool_FullMethod, in, out); err != nil {
		t.Fatalf("InvokeTool returned error: %v", err)
	}
	if stub.invokeCompany != "company-1" || stub.invokeName != "create-assignment" {
		t.Errorf("unexpected invocation: company=%q tool=%q", stub.invokeCompany, stub.invokeName)
	}
	if records, ok := out.AsMap()["records"].([]any); !ok || len(records) != 1 {
		t.Errorf("unexpected records: %v", out.AsMap()["records"])
	}

	tools := new(structpb.Struct)
	if err := conn.Invoke(ctx, AssistantService_ListTools_FullMethod, &emptypb.Empty{}, tools); err != nil {
		t.Fatalf("ListTools returned error: %v", err)
	}
	if list, ok := tools.AsMap()["tools"].([]any); !ok || len(list) != 1 {
		t.Errorf("unexpected tools: %v", tools.AsMap())
	}

	history := new(structpb.Struct)
	if err := conn.Invoke(ctx, AssistantService_GetHistory_FullMethod, mustStruct(t, map[string]any{"sessionId": "s1"}), history); err != nil {
		t.Fatalf("GetHistory returned error: %v", err)
	}
	if list, ok := history.AsMap()["messages"].([]any); !ok || len(list) != 1 {
		t.Errorf("unexpected history: %v", history.AsMap())
	}
	if stub.historyCompany != "company-1" {
		t.Errorf("expected history to be read for company-1, got %q", stub.historyCompany)
	}
}
