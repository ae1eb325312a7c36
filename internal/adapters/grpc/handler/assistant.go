package handler

import (
	"context"
	"strings"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/assistant"
	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	"github.com/ogurasousui/planner-assistant/internal/core/tool"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// CompanyMetadataKey は呼び出し元の会社 ID を運ぶメタデータのキーです。
const CompanyMetadataKey = "x-company-id"

// Assistant は gRPC ハンドラーが利用するアシスタントの操作です。
type Assistant interface {
	HandleTurn(ctx context.Context, req assistant.TurnRequest) (*assistant.Response, error)
	Invoke(ctx context.Context, companyID, name string, args tool.Args) (*tool.Result, error)
	Tools() []*tool.Tool
	History(ctx context.Context, companyID, sessionID string) ([]*conversation.Message, error)
	ClearSession(ctx context.Context, companyID, sessionID string) error
}

// AssistantGrpcHandler は AssistantService の gRPC 実装です。
type AssistantGrpcHandler struct {
	svc Assistant
}

var _ AssistantServiceServer = (*AssistantGrpcHandler)(nil)

// NewAssistantGrpcHandler は AssistantGrpcHandler を生成します。
func NewAssistantGrpcHandler(svc Assistant) *AssistantGrpcHandler {
	return &AssistantGrpcHandler{svc: svc}
}

// HandleTurn は会話の 1 ターンを処理します。
// リクエストは {sessionId, message, intent: {tool, params}} の形です。
func (h *AssistantGrpcHandler) HandleTurn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in := req.AsMap()

	turn := assistant.TurnRequest{
		SessionID: stringField(in, "sessionId"),
		CompanyID: CompanyIDFromIncoming(ctx),
		Message:   stringField(in, "message"),
	}
	if raw, ok := in["intent"].(map[string]any); ok {
		turn.Intent = &assistant.Intent{
			Tool:   stringField(raw, "tool"),
			Params: objectField(raw, "params"),
		}
	}

	resp, err := h.svc.HandleTurn(ctx, turn)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(responseMap(resp))
}

// InvokeTool は会話を介さずにツールを実行します。リクエストは {tool, params} の形です。
func (h *AssistantGrpcHandler) InvokeTool(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in := req.AsMap()

	name := stringField(in, "tool")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "tool is required")
	}

	result, err := h.svc.Invoke(ctx, CompanyIDFromIncoming(ctx), name, objectField(in, "params"))
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(resultMap(result))
}

// ListTools はツールカタログを返します。
func (h *AssistantGrpcHandler) ListTools(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	tools := h.svc.Tools()
	list := make([]any, 0, len(tools))
	for _, t := range tools {
		params := make([]any, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, map[string]any{
				"name":     p.Name,
				"type":     string(p.Type),
				"required": p.Required,
				"label":    p.Label,
			})
		}
		list = append(list, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"mutates":     t.Mutates,
			"params":      params,
		})
	}
	return toStruct(map[string]any{"tools": list})
}

// GetHistory はセッションの会話ログを返します。リクエストは {sessionId} の形です。
func (h *AssistantGrpcHandler) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	messages, err := h.svc.History(ctx, CompanyIDFromIncoming(ctx), stringField(req.AsMap(), "sessionId"))
	if err != nil {
		return nil, toStatusError(err)
	}

	list := make([]any, 0, len(messages))
	for _, m := range messages {
		list = append(list, map[string]any{
			"id":        m.ID,
			"sender":    string(m.Sender),
			"text":      m.Text,
			"timestamp": m.Timestamp.Format(time.RFC3339Nano),
		})
	}
	return toStruct(map[string]any{"messages": list})
}

// ClearSession はセッションの保留中の呼び出しと会話ログを破棄します。
func (h *AssistantGrpcHandler) ClearSession(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := h.svc.ClearSession(ctx, CompanyIDFromIncoming(ctx), stringField(req.AsMap(), "sessionId")); err != nil {
		return nil, toStatusError(err)
	}
	return &emptypb.Empty{}, nil
}

// CompanyIDFromIncoming は受信メタデータから会社 ID を取り出します。
func CompanyIDFromIncoming(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(CompanyMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func responseMap(resp *assistant.Response) map[string]any {
	trace := make([]any, 0, len(resp.Trace))
	for _, s := range resp.Trace {
		trace = append(trace, string(s))
	}
	out := map[string]any{
		"sessionId":           resp.SessionID,
		"state":               string(resp.State),
		"outcome":             string(resp.Outcome),
		"kind":                string(resp.Kind),
		"tool":                resp.Tool,
		"clarificationNeeded": resp.ClarificationNeeded,
		"message":             resp.Message,
		"affectedRecords":     recordsToAny(resp.AffectedRecords),
		"trace":               trace,
	}
	if resp.MissingParameter != "" {
		out["missingParameter"] = resp.MissingParameter
	}
	if len(resp.Data) > 0 {
		out["data"] = resp.Data
	}
	return out
}

func resultMap(result *tool.Result) map[string]any {
	out := map[string]any{
		"summary": result.Summary,
		"records": recordsToAny(result.Records),
	}
	if len(result.Data) > 0 {
		out["data"] = result.Data
	}
	return out
}

func recordsToAny(records []map[string]any) []any {
	out := make([]any, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	return out
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return strings.TrimSpace(v)
}

func objectField(m map[string]any, key string) tool.Args {
	v, ok := m[key].(map[string]any)
	if !ok {
		return tool.Args{}
	}
	return tool.Args(v)
}
