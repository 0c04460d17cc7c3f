package dialogue

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formdoc/patch"
	"github.com/tbxark/formdoc/types"
)

func seq(fields ...string) []types.FieldName {
	out := make([]types.FieldName, 0, len(fields))
	for _, f := range fields {
		out = append(out, types.FieldName(f))
	}
	return out
}

func TestSequencerScenario(t *testing.T) {
	t.Parallel()
	s := NewSequencer(seq("name", "birth_date", "diagnosis"), types.DefaultRules(), nil)
	for _, v := range []string{"Ivan", "01.01.1990", "Flu"} {
		if err := s.Submit(v); err != nil {
			t.Fatalf("submit %q: %v", v, err)
		}
	}
	if !s.Complete() {
		t.Fatal("expected Complete")
	}
	want := patch.Answers{
		"name": "Ivan", "birth_date": "01.01.1990", "diagnosis": "Flu",
		"sop_diagnosis": "Flu", "main_diagnosis": "Flu",
	}
	if !reflect.DeepEqual(s.Answers, want) {
		t.Fatalf("answers = %v, want %v", s.Answers, want)
	}
	if err := s.Submit("extra"); !errors.Is(err, types.ErrSequenceComplete) {
		t.Fatalf("expected ErrSequenceComplete, got %v", err)
	}
	if got := s.Prompt(DefaultDisplayNames()); got != "" {
		t.Errorf("complete sequencer prompt = %q", got)
	}
}

func TestSubmitNonSourceLeavesDerived(t *testing.T) {
	t.Parallel()
	s := NewSequencer(seq("diagnosis", "name"), types.DefaultRules(), nil)
	_ = s.Submit("Flu")
	_ = s.Submit("Ivan")
	if s.Answers["sop_diagnosis"] != "Flu" || s.Answers["main_diagnosis"] != "Flu" {
		t.Fatalf("derived fields changed by a non-source answer: %v", s.Answers)
	}
}

func TestGoBack(t *testing.T) {
	t.Parallel()
	s := NewSequencer(seq("name", "diagnosis", "doctor"), types.DefaultRules(), nil)
	if err := s.GoBack(); !errors.Is(err, types.ErrNavigationOutOfRange) {
		t.Fatalf("expected ErrNavigationOutOfRange, got %v", err)
	}
	if s.Index != 0 || len(s.Answers) != 0 || len(s.History) != 0 {
		t.Fatalf("state changed on failed go back: %+v", s)
	}

	_ = s.Submit("Ivan")
	_ = s.Submit("Flu")
	if err := s.GoBack(); err != nil {
		t.Fatalf("go back: %v", err)
	}
	if s.Index != 1 || len(s.History) != 1 {
		t.Fatalf("unexpected position %d / history %v", s.Index, s.History)
	}
	for _, f := range []types.FieldName{"diagnosis", "sop_diagnosis", "main_diagnosis"} {
		if _, ok := s.Answers[f]; ok {
			t.Errorf("%s should be unanswered after going back", f)
		}
	}
	if s.Answers["name"] != "Ivan" {
		t.Errorf("earlier answers must survive: %v", s.Answers)
	}
	if field, _ := s.Current(); field != "diagnosis" {
		t.Errorf("current = %s", field)
	}
	_ = s.Submit("Cold")
	if s.Answers["main_diagnosis"] != "Cold" {
		t.Errorf("derived fields not refreshed: %v", s.Answers)
	}
}

func TestPromptAndProgress(t *testing.T) {
	t.Parallel()
	names := DefaultDisplayNames()
	s := NewSequencer(seq("name", "custom_field"), types.DefaultRules(), nil)
	if got := s.Prompt(names); got != "(1/2) 👤 ФИО пациента" {
		t.Errorf("prompt = %q", got)
	}
	if s.CanGoBack() {
		t.Error("cannot go back from the first field")
	}
	_ = s.Submit("Ivan")
	if got := s.Prompt(names); got != "(2/2) custom_field" {
		t.Errorf("prompt = %q", got)
	}
	if !s.CanGoBack() {
		t.Error("expected CanGoBack")
	}
	if got := s.Pending(); !reflect.DeepEqual(got, seq("custom_field")) {
		t.Errorf("pending = %v", got)
	}
}

func TestSeededAnswersSurvive(t *testing.T) {
	t.Parallel()
	seed := patch.Answers{"name": "Ivan", "snils": "123"}
	s := NewSequencer(seq("name"), types.DefaultRules(), seed)
	_ = s.Submit("Petr")
	if s.Answers["snils"] != "123" || s.Answers["name"] != "Petr" {
		t.Fatalf("answers = %v", s.Answers)
	}
	if seed["name"] != "Ivan" {
		t.Fatal("seed must not be modified")
	}
}

type fakeChatModel struct {
	content string
	err     error
	got     []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func toolRequest() *types.ToolRequest {
	info := DefaultDisplayNames().FieldInfo("birth_date")
	return &types.ToolRequest{
		Stage:     types.StageFilling,
		Current:   &info,
		Position:  2,
		Total:     5,
		CanGoBack: true,
		Answers:   types.Values{{Field: "name", Value: "Ivan"}},
	}
}

func TestLocalDialogueGenerator(t *testing.T) {
	t.Parallel()
	got, err := LocalDialogueGenerator{}.GenerateDialogue(context.Background(), toolRequest())
	if err != nil {
		t.Fatal(err)
	}
	if got != "(2/5) 📅 Дата рождения (ДД.ММ.ГГГГ)" {
		t.Errorf("got %q", got)
	}
	if _, err := (LocalDialogueGenerator{}).GenerateDialogue(context.Background(), &types.ToolRequest{}); err == nil {
		t.Error("expected error without a current field")
	}
}

func TestToolBasedDialogueGeneratorFallsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	llm := &fakeChatModel{content: "  (2/5) Когда родился пациент?  "}
	gen := NewFailbackDialogueGenerator(NewToolBasedDialogueGenerator(llm), LocalDialogueGenerator{})
	got, err := gen.GenerateDialogue(ctx, toolRequest())
	if err != nil {
		t.Fatal(err)
	}
	if got != "(2/5) Когда родился пациент?" {
		t.Errorf("got %q", got)
	}
	if len(llm.got) != 2 || !strings.Contains(llm.got[0].Content, "Russian") || !strings.Contains(llm.got[1].Content, "birth_date") {
		t.Errorf("unexpected prompt: %+v", llm.got)
	}

	broken := &fakeChatModel{err: errors.New("offline")}
	gen = NewFailbackDialogueGenerator(NewToolBasedDialogueGenerator(broken), LocalDialogueGenerator{})
	got, err = gen.GenerateDialogue(ctx, toolRequest())
	if err != nil {
		t.Fatal(err)
	}
	if got != "(2/5) 📅 Дата рождения (ДД.ММ.ГГГГ)" {
		t.Errorf("fallback got %q", got)
	}
}
