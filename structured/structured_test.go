package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type verdict struct {
	Intent string `json:"intent" jsonschema:"required,enum=yes,enum=no"`
	Reason string `json:"reason,omitempty"`
}

type scriptedModel struct {
	reply *schema.Message
	err   error
	opts  *model.Options
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.opts = model.GetCommonOptions(&model.Options{}, opts...)
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func prompt(ctx context.Context, input string) ([]*schema.Message, error) {
	if input == "" {
		return nil, errors.New("empty input")
	}
	return []*schema.Message{schema.UserMessage(input)}, nil
}

func toolReply(name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_1",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}

func TestChainInvoke(t *testing.T) {
	t.Parallel()
	m := &scriptedModel{reply: toolReply("judge", `{"intent":"yes","reason":"clear"}`)}
	chain, err := NewChain[string, verdict](m, prompt, "judge", "Judge the input")
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	got, err := chain.Invoke(context.Background(), "is it?")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got.Intent != "yes" || got.Reason != "clear" {
		t.Errorf("got %+v", got)
	}
	if m.opts == nil || len(m.opts.Tools) != 1 || m.opts.Tools[0].Name != "judge" {
		t.Errorf("tool not passed to the model: %+v", m.opts)
	}
	if m.opts.ToolChoice == nil || *m.opts.ToolChoice != schema.ToolChoiceForced {
		t.Errorf("tool choice should be forced")
	}
}

func TestChainPrefersNamedToolCall(t *testing.T) {
	t.Parallel()
	reply := schema.AssistantMessage("", []schema.ToolCall{
		{Function: schema.FunctionCall{Name: "other", Arguments: `{"intent":"no"}`}},
		{Function: schema.FunctionCall{Name: "judge", Arguments: `{"intent":"yes"}`}},
	})
	chain, err := NewChain[string, verdict](&scriptedModel{reply: reply}, prompt, "judge", "Judge the input")
	if err != nil {
		t.Fatal(err)
	}
	got, err := chain.Invoke(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Intent != "yes" {
		t.Errorf("got %+v", got)
	}
}

func TestChainErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if _, err := NewChain[string, verdict](nil, prompt, "judge", "d"); err == nil {
		t.Error("expected error for nil model")
	}

	chain, _ := NewChain[string, verdict](&scriptedModel{reply: schema.AssistantMessage("plain text", nil)}, prompt, "judge", "d")
	if _, err := chain.Invoke(ctx, "x"); !errors.Is(err, ErrNoToolCall) {
		t.Errorf("expected ErrNoToolCall, got %v", err)
	}
	if _, err := chain.Invoke(ctx, ""); err == nil {
		t.Error("expected prompt builder error")
	}

	chain, _ = NewChain[string, verdict](&scriptedModel{reply: toolReply("judge", `{"intent":`)}, prompt, "judge", "d")
	if _, err := chain.Invoke(ctx, "x"); err == nil {
		t.Error("expected decode error")
	}

	chain, _ = NewChain[string, verdict](&scriptedModel{err: errors.New("boom")}, prompt, "judge", "d")
	if _, err := chain.Invoke(ctx, "x"); err == nil {
		t.Error("expected model error")
	}
}
