package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/tbxark/formdoc/catalog"
	"github.com/tbxark/formdoc/command"
	"github.com/tbxark/formdoc/dialogue"
	"github.com/tbxark/formdoc/fields"
	"github.com/tbxark/formdoc/filler"
	"github.com/tbxark/formdoc/patch"
	"github.com/tbxark/formdoc/types"
)

const DefaultMissingValue = "Не указано"

type FieldAggregator interface {
	Aggregate(ctx context.Context, category string, selected []string) (fields.Result, error)
}

type DocumentGenerator interface {
	Generate(ctx context.Context, category string, selected []string, values types.Values) (*filler.Batch, error)
}

// Flow drives sessions from category selection to delivered documents. Every entry point
// loads the session named by the context state key, applies one event and persists the result.
type Flow struct {
	catalog           *catalog.Catalog
	aggregator        FieldAggregator
	generator         DocumentGenerator
	delivery          Delivery
	state             StateReadWriter
	commandParser     command.Parser
	dialogueGenerator dialogue.Generator
	names             dialogue.DisplayNames
	providers         []ValueProvider
	access            AccessList
	rules             types.Rules
	missing           string
	now               func() time.Time
	locks             keyedMutex
}

type FlowOption func(*Flow)

func WithStateReadWriter(state StateReadWriter) FlowOption {
	return func(f *Flow) {
		f.state = state
	}
}

func WithCommandParser(parser command.Parser) FlowOption {
	return func(f *Flow) {
		f.commandParser = parser
	}
}

func WithDialogueGenerator(generator dialogue.Generator) FlowOption {
	return func(f *Flow) {
		f.dialogueGenerator = generator
	}
}

// WithDisplayNames overrides entries of the built-in prompt table.
func WithDisplayNames(names dialogue.DisplayNames) FlowOption {
	return func(f *Flow) {
		f.names = f.names.Merge(names)
	}
}

func WithValueProviders(providers ...ValueProvider) FlowOption {
	return func(f *Flow) {
		f.providers = append(f.providers, providers...)
	}
}

func WithAccessList(access AccessList) FlowOption {
	return func(f *Flow) {
		f.access = access
	}
}

func WithMissingValue(text string) FlowOption {
	return func(f *Flow) {
		f.missing = text
	}
}

func WithFlowClock(now func() time.Time) FlowOption {
	return func(f *Flow) {
		f.now = now
	}
}

func NewFlow(c *catalog.Catalog, aggregator FieldAggregator, generator DocumentGenerator, delivery Delivery, opts ...FlowOption) (*Flow, error) {
	if c == nil || aggregator == nil || generator == nil || delivery == nil {
		return nil, errors.New("catalog, aggregator, generator and delivery are required")
	}
	f := &Flow{
		catalog:           c,
		aggregator:        aggregator,
		generator:         generator,
		delivery:          delivery,
		state:             NewMemoryStateReadWriter(0),
		commandParser:     command.NewLocalCommandParser(),
		dialogueGenerator: dialogue.LocalDialogueGenerator{},
		names:             dialogue.DefaultDisplayNames(),
		rules:             c.FieldRules(),
		missing:           DefaultMissingValue,
		now:               time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

type handler func(ctx context.Context, st *State) (resp *Response, keep bool)

// run serialises events of one session. keep=false removes the session state.
func (f *Flow) run(ctx context.Context, event string, h handler) (*Response, error) {
	key := stateKeyOrDefault(ctx)
	if !f.access.Allowed(key) {
		slog.Warn("Access denied", "session", key, "event", event)
		return &Response{Notice: types.NoticeAccessDenied, Message: msgAccessDenied}, nil
	}
	unlock := f.locks.Lock(key)
	defer unlock()

	st, err := f.state.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}
	slog.Debug("Handling event", "session", key, "event", event, "stage", st.Stage)
	resp, keep := h(ctx, st)
	if keep {
		st.UpdatedAt = f.now()
		if err := f.state.Write(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to write session state: %w", err)
		}
	} else if err := f.state.Remove(ctx); err != nil {
		return nil, fmt.Errorf("failed to remove session state: %w", err)
	}
	if resp.Stage == "" {
		resp.Stage = st.Stage
	}
	slog.Debug("Handled event", "session", key, "event", event, "stage", resp.Stage, "notice", resp.Notice)
	return resp, nil
}

func (f *Flow) Start(ctx context.Context) (*Response, error) {
	return f.run(ctx, "start", f.start)
}

func (f *Flow) SelectCategory(ctx context.Context, name string) (*Response, error) {
	return f.run(ctx, "select_category", func(ctx context.Context, st *State) (*Response, bool) {
		return f.selectCategory(ctx, st, name)
	})
}

func (f *Flow) ToggleTemplate(ctx context.Context, name string) (*Response, error) {
	return f.run(ctx, "toggle", func(ctx context.Context, st *State) (*Response, bool) {
		return f.toggleTemplate(ctx, st, name)
	})
}

func (f *Flow) SelectAll(ctx context.Context) (*Response, error) {
	return f.run(ctx, "select_all", f.selectAll)
}

func (f *Flow) Continue(ctx context.Context) (*Response, error) {
	return f.run(ctx, "continue", f.cont)
}

// Answer treats text as the value of the current field unless the command parser
// recognises it as navigation.
func (f *Flow) Answer(ctx context.Context, text string) (*Response, error) {
	return f.run(ctx, "answer", func(ctx context.Context, st *State) (*Response, bool) {
		if resp, keep, ok := f.handleCommand(ctx, st, text); ok {
			return resp, keep
		}
		if st.Stage != types.StageFilling {
			return f.unexpected(ctx, st, "answer"), true
		}
		return f.submit(ctx, st, text)
	})
}

func (f *Flow) BackToPrevious(ctx context.Context) (*Response, error) {
	return f.run(ctx, "back_to_previous", f.backToPrevious)
}

func (f *Flow) BackToTemplates(ctx context.Context) (*Response, error) {
	return f.run(ctx, "back_to_templates", f.backToTemplates)
}

func (f *Flow) BackToCategories(ctx context.Context) (*Response, error) {
	return f.run(ctx, "back_to_categories", f.backToCategories)
}

// Restart drops the session unconditionally.
func (f *Flow) Restart(ctx context.Context) (*Response, error) {
	return f.run(ctx, "restart", f.restart)
}

func (f *Flow) Cancel(ctx context.Context) (*Response, error) {
	return f.run(ctx, "cancel", f.cancel)
}

// State returns a snapshot of the stored session, for transports that render their own
// keyboards. It waits for a running event of the same session to finish.
func (f *Flow) State(ctx context.Context) (*State, error) {
	unlock := f.locks.Lock(stateKeyOrDefault(ctx))
	defer unlock()
	st, err := f.state.Read(ctx)
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}

func (f *Flow) start(ctx context.Context, st *State) (*Response, bool) {
	*st = *f.state.InitState(ctx)
	return f.categoryView(), true
}

func (f *Flow) restart(ctx context.Context, st *State) (*Response, bool) {
	resp := f.categoryView()
	resp.Message = msgRestarting + "\n\n" + resp.Message
	return resp, false
}

func (f *Flow) cancel(ctx context.Context, st *State) (*Response, bool) {
	return &Response{Stage: types.StageCancelled, Message: msgCancelled}, false
}

func (f *Flow) selectCategory(ctx context.Context, st *State, name string) (*Response, bool) {
	if st.Stage != types.StageSelectingCategory {
		return f.unexpected(ctx, st, "select_category"), true
	}
	cat, err := f.catalog.Category(name)
	if err != nil {
		return f.notice(ctx, st, types.NoticeUnknownCategory, msgUnknownCategory, err), true
	}
	st.Category = cat.Name
	st.Selected = nil
	st.Fields = nil
	st.Sequencer = nil
	st.Answers = nil
	st.Stage = types.StageSelectingTemplates
	resp := f.templatesView(st)
	if cat.Description != "" {
		resp.Message = cat.Description + "\n\n" + resp.Message
	}
	return resp, true
}

func (f *Flow) toggleTemplate(ctx context.Context, st *State, name string) (*Response, bool) {
	if st.Stage != types.StageSelectingTemplates {
		return f.unexpected(ctx, st, "toggle"), true
	}
	cat, err := f.catalog.Category(st.Category)
	if err != nil {
		return f.handleError(ctx, st, err), true
	}
	if _, ok := cat.Template(name); !ok {
		return f.notice(ctx, st, types.NoticeUnknownTemplate, msgUnknownTemplate,
			fmt.Errorf("%w: %q", types.ErrUnknownTemplate, name)), true
	}
	if i := slices.Index(st.Selected, name); i >= 0 {
		st.Selected = slices.Delete(st.Selected, i, i+1)
	} else {
		st.Selected = append(st.Selected, name)
	}
	return f.templatesView(st), true
}

func (f *Flow) selectAll(ctx context.Context, st *State) (*Response, bool) {
	if st.Stage != types.StageSelectingTemplates {
		return f.unexpected(ctx, st, "select_all"), true
	}
	cat, err := f.catalog.Category(st.Category)
	if err != nil {
		return f.handleError(ctx, st, err), true
	}
	st.Selected = cat.TemplateNames()
	resp := f.templatesView(st)
	resp.Message = allSelected(cat.Name, st.Selected)
	return resp, true
}

func (f *Flow) cont(ctx context.Context, st *State) (*Response, bool) {
	if st.Stage != types.StageSelectingTemplates {
		return f.unexpected(ctx, st, "continue"), true
	}
	if len(st.Selected) == 0 {
		return f.notice(ctx, st, types.NoticeEmptySelection, msgEmptySelection, types.ErrEmptySelection), true
	}
	res, err := f.aggregator.Aggregate(ctx, st.Category, st.Selected)
	if err != nil {
		return f.handleError(ctx, st, fmt.Errorf("failed to aggregate fields: %w", err)), true
	}
	if len(res.Fields) == 0 {
		slog.Warn("Selected templates have no fields", "category", st.Category, "templates", st.Selected)
		return &Response{
			Stage:    types.StageCancelled,
			Notice:   types.NoticeNoFieldsRequired,
			Message:  msgNoFields,
			Metadata: map[string]string{"error": types.ErrNoFieldsRequired.Error()},
		}, false
	}
	st.Fields = res.Fields
	st.Sequencer = dialogue.NewSequencer(res.Inputs, f.rules, st.Answers)
	st.Stage = types.StageFilling
	slog.Info("Starting dialogue", "category", st.Category, "templates", st.Selected,
		"fields", len(res.Fields), "questions", len(res.Inputs))

	intro := startFilling(st.Selected)
	if st.Sequencer.Complete() {
		resp, keep := f.finish(ctx, st)
		resp.Message = intro + "\n\n" + resp.Message
		return resp, keep
	}
	resp := f.ask(ctx, st, "")
	resp.Message = intro
	return resp, true
}

func (f *Flow) submit(ctx context.Context, st *State, text string) (*Response, bool) {
	if st.Sequencer == nil {
		return f.handleError(ctx, st, errors.New("no dialogue in progress")), true
	}
	field, _ := st.Sequencer.Current()
	if err := st.Sequencer.Submit(text); err != nil {
		return f.handleError(ctx, st, fmt.Errorf("failed to submit answer: %w", err)), true
	}
	slog.Debug("Stored answer", "field", field, "position", st.Sequencer.Index, "total", st.Sequencer.Total())
	if st.Sequencer.Complete() {
		return f.finish(ctx, st)
	}
	return f.ask(ctx, st, text), true
}

func (f *Flow) backToPrevious(ctx context.Context, st *State) (*Response, bool) {
	if st.Stage != types.StageFilling || st.Sequencer == nil {
		return f.unexpected(ctx, st, "back_to_previous"), true
	}
	if err := st.Sequencer.GoBack(); err != nil {
		if errors.Is(err, types.ErrNavigationOutOfRange) {
			resp := f.filling(st)
			resp.Notice = types.NoticeNavigationOutOfRange
			resp.Message = msgFirstField
			return resp, true
		}
		return f.handleError(ctx, st, err), true
	}
	resp := f.ask(ctx, st, "")
	resp.Message = msgBackToPrevious
	return resp, true
}

func (f *Flow) backToTemplates(ctx context.Context, st *State) (*Response, bool) {
	switch st.Stage {
	case types.StageFilling, types.StageSelectingTemplates:
	default:
		return f.unexpected(ctx, st, "back_to_templates"), true
	}
	if st.Sequencer != nil {
		st.Answers = st.Sequencer.Answers
	}
	st.Sequencer = nil
	st.Fields = nil
	st.LatestQuestion = ""
	st.Stage = types.StageSelectingTemplates
	return f.templatesView(st), true
}

func (f *Flow) backToCategories(ctx context.Context, st *State) (*Response, bool) {
	*st = *f.state.InitState(ctx)
	return f.categoryView(), true
}

// ask renders the question for the current field. answer is the text that was just
// submitted, if any, so a model-backed generator can react to it.
func (f *Flow) ask(ctx context.Context, st *State, answer string) *Response {
	req := f.toolRequest(st, answer)
	question, err := f.dialogueGenerator.GenerateDialogue(ctx, req)
	if err != nil {
		slog.Warn("Dialogue generator failed, using plain prompt", "error", err)
		question = st.Sequencer.Prompt(f.names)
	}
	st.LatestQuestion = question
	return f.filling(st)
}

func (f *Flow) filling(st *State) *Response {
	return &Response{
		Stage:     types.StageFilling,
		Prompt:    st.LatestQuestion,
		CanGoBack: st.Sequencer != nil && st.Sequencer.CanGoBack(),
		Templates: f.templateOptions(st),
	}
}

// finish generates, delivers and always forgets the session.
func (f *Flow) finish(ctx context.Context, st *State) (*Response, bool) {
	values := f.values(ctx, st)
	batch, err := f.generator.Generate(ctx, st.Category, st.Selected, values)
	if err != nil {
		slog.Error("Failed to generate documents", "category", st.Category, "templates", st.Selected, "error", err)
		return f.generationFailure(err), false
	}
	defer func() {
		if cErr := batch.Cleanup(); cErr != nil {
			slog.Error("Failed to remove generated documents", "batch", batch.ID, "error", cErr)
		}
	}()
	if err := f.delivery.Deliver(ctx, batch); err != nil {
		slog.Error("Failed to deliver documents", "batch", batch.ID, "error", err)
		return f.generationFailure(fmt.Errorf("%w: deliver: %w", types.ErrGenerationFailure, err)), false
	}
	names := make([]string, 0, len(batch.Files))
	for _, file := range batch.Files {
		names = append(names, file.Name)
	}
	slog.Info("Delivered documents", "batch", batch.ID, "category", st.Category, "documents", names)
	return &Response{
		Stage:     types.StageCompleted,
		Message:   msgDone,
		Documents: names,
		Completed: true,
	}, false
}

func (f *Flow) generationFailure(err error) *Response {
	return &Response{
		Stage:    types.StageCancelled,
		Notice:   types.NoticeGenerationFailure,
		Message:  msgGenerationFailure,
		Metadata: map[string]string{"error": err.Error()},
	}
}

// values lists every required field in order. Derived fields copy their source and
// reserved fields come from the providers.
func (f *Flow) values(ctx context.Context, st *State) types.Values {
	var answers patch.Answers
	if st.Sequencer != nil {
		answers = st.Sequencer.Answers
	}
	out := make(types.Values, 0, len(st.Fields)+len(f.providers))
	for _, field := range st.Fields {
		lookup := field
		if src, ok := f.rules.Derived[field]; ok {
			lookup = src
		}
		value, ok := answers[lookup]
		if !ok {
			value, ok = answers[field]
		}
		if !ok {
			value = f.missing
		}
		out = append(out, types.Value{Field: field, Value: value})
	}
	return f.withReserved(ctx, out)
}

func (f *Flow) withReserved(ctx context.Context, values types.Values) types.Values {
	if len(f.providers) == 0 {
		return values
	}
	reserved := patch.Answers{}
	for _, p := range f.providers {
		value, err := p.Value(ctx)
		if err != nil {
			slog.Warn("Reserved value unavailable", "field", p.Field(), "error", err)
			continue
		}
		reserved[p.Field()] = value
	}
	current := patch.Answers(values.Map())
	ops := patch.Prefill(current, reserved)
	if err := patch.ValidatePatchOperations(ops, patch.Pointers(f.rules.Reserved)); err != nil {
		slog.Warn("Ignoring reserved values", "error", err)
		return values
	}
	merged, err := patch.Apply(current, ops)
	if err != nil {
		slog.Warn("Failed to merge reserved values", "error", err)
		return values
	}
	for _, p := range f.providers {
		if value, ok := merged[p.Field()]; ok {
			values = values.Set(p.Field(), value)
		}
	}
	return values
}

// handleCommand reports ok=false when text is not a navigation command.
func (f *Flow) handleCommand(ctx context.Context, st *State, text string) (*Response, bool, bool) {
	req := f.toolRequest(st, text)
	// the command parser never sees earlier answers
	req.Answers = nil
	cmd, err := f.commandParser.ParseCommand(ctx, req)
	if err != nil {
		slog.Warn("Failed to parse command, treating input as text", "error", err)
		return nil, false, false
	}
	slog.Debug("Parsed command", "command", cmd)
	var resp *Response
	var keep bool
	switch cmd {
	case command.Restart:
		resp, keep = f.restart(ctx, st)
	case command.Cancel:
		resp, keep = f.cancel(ctx, st)
	case command.BackToPrevious:
		resp, keep = f.backToPrevious(ctx, st)
	case command.BackToTemplates:
		resp, keep = f.backToTemplates(ctx, st)
	case command.BackToCategories:
		resp, keep = f.backToCategories(ctx, st)
	default:
		return nil, false, false
	}
	return resp, keep, true
}

func (f *Flow) toolRequest(st *State, answer string) *types.ToolRequest {
	req := &types.ToolRequest{
		Stage: st.Stage,
		MessagePair: types.MessagePair{
			Question: st.LatestQuestion,
			Answer:   answer,
		},
		Templates: st.Selected,
	}
	seq := st.Sequencer
	if seq == nil {
		return req
	}
	if field, ok := seq.Current(); ok {
		info := f.names.FieldInfo(field)
		req.Current = &info
	}
	req.Position = seq.Position()
	req.Total = seq.Total()
	req.Pending = f.names.FieldInfos(seq.Pending())
	req.CanGoBack = seq.CanGoBack()
	for _, record := range seq.History {
		req.Answers = req.Answers.Set(record.Field, record.Value)
	}
	return req
}

func (f *Flow) categoryView() *Response {
	return &Response{
		Stage:      types.StageSelectingCategory,
		Message:    categoryMenu(f.catalog),
		Categories: f.catalog.CategoryNames(),
	}
}

func (f *Flow) templateOptions(st *State) []TemplateOption {
	cat, err := f.catalog.Category(st.Category)
	if err != nil {
		return nil
	}
	out := make([]TemplateOption, 0, len(cat.Templates))
	for _, t := range cat.Templates {
		out = append(out, TemplateOption{Name: t.Name, Selected: slices.Contains(st.Selected, t.Name)})
	}
	return out
}

func (f *Flow) templatesView(st *State) *Response {
	options := f.templateOptions(st)
	return &Response{
		Stage:     types.StageSelectingTemplates,
		Message:   templateMenu(len(st.Selected), len(options)),
		Templates: options,
	}
}

// view re-renders the current stage.
func (f *Flow) view(st *State) *Response {
	switch st.Stage {
	case types.StageSelectingTemplates:
		return f.templatesView(st)
	case types.StageFilling:
		return f.filling(st)
	default:
		return f.categoryView()
	}
}

func (f *Flow) notice(ctx context.Context, st *State, notice types.Notice, message string, err error) *Response {
	resp := f.view(st)
	resp.Notice = notice
	resp.Message = message
	if err != nil {
		resp.Metadata = map[string]string{"error": err.Error()}
	}
	return resp
}

func (f *Flow) unexpected(ctx context.Context, st *State, event string) *Response {
	slog.Debug("Event not allowed in stage", "event", event, "stage", st.Stage)
	return f.notice(ctx, st, types.NoticeUnexpectedEvent, msgUnexpected,
		fmt.Errorf("%s is not allowed in stage %s", event, st.Stage))
}

func (f *Flow) handleError(ctx context.Context, st *State, err error) *Response {
	slog.Error("Failed to handle event", "stage", st.Stage, "error", err)
	resp := f.view(st)
	resp.Message = fmt.Sprintf(msgProcessingError, err.Error())
	resp.Metadata = map[string]string{"error": err.Error()}
	return resp
}
