package agent

import (
	"context"
	"slices"
	"time"

	"github.com/tbxark/formdoc/dialogue"
	"github.com/tbxark/formdoc/patch"
	"github.com/tbxark/formdoc/types"
)

// State is everything one session remembers between events.
type State struct {
	Stage    types.Stage `json:"stage"`
	Category string      `json:"category,omitempty"`
	// Selected keeps selection order; generation follows it.
	Selected []string          `json:"selected,omitempty"`
	Fields   []types.FieldName `json:"fields,omitempty"`
	// Sequencer is set while filling.
	Sequencer *dialogue.Sequencer `json:"sequencer,omitempty"`
	// Answers survive a trip back to template selection and seed the next walk.
	Answers        patch.Answers `json:"answers,omitempty"`
	LatestQuestion string        `json:"latest_question,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Selected = slices.Clone(s.Selected)
	out.Fields = slices.Clone(s.Fields)
	out.Sequencer = s.Sequencer.Clone()
	if s.Answers != nil {
		out.Answers = s.Answers.Clone()
	}
	return &out
}

// StateReadWriter provides read/write access to state using context for routing.
type StateReadWriter interface {
	InitState(ctx context.Context) *State
	Remove(ctx context.Context) error
	Read(ctx context.Context) (*State, error)
	Write(ctx context.Context, state *State) error
}

type stateKeyContext struct{}

const defaultStateKey = "default"

// WithStateKey sets a routing key for state storage in the context.
func WithStateKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, stateKeyContext{}, key)
}

// StateKeyFromContext gets the routing key from the context.
func StateKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(stateKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

func stateKeyOrDefault(ctx context.Context) string {
	key, ok := StateKeyFromContext(ctx)
	if ok && key != "" {
		return key
	}
	return defaultStateKey
}

// StoreStateReadWriter keeps sessions in any Cache; a missing session reads as a fresh one.
type StoreStateReadWriter struct {
	store Store[*State]
}

func NewStateReadWriter(core Cache[*State]) *StoreStateReadWriter {
	return &StoreStateReadWriter{
		store: NewStore(core, "formdoc:state", func(ctx context.Context) (string, bool) {
			return stateKeyOrDefault(ctx), true
		}),
	}
}

func NewMemoryStateReadWriter(ttl time.Duration) *StoreStateReadWriter {
	return NewStateReadWriter(NewMemoryCache[*State](ttl))
}

func (s *StoreStateReadWriter) InitState(ctx context.Context) *State {
	return &State{Stage: types.StageSelectingCategory}
}

func (s *StoreStateReadWriter) Read(ctx context.Context) (*State, error) {
	state, ok, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok || state == nil {
		return s.InitState(ctx), nil
	}
	return state, nil
}

func (s *StoreStateReadWriter) Write(ctx context.Context, state *State) error {
	if state.Stage == "" {
		state.Stage = types.StageSelectingCategory
	}
	return s.store.Set(ctx, state)
}

func (s *StoreStateReadWriter) Remove(ctx context.Context) error {
	return s.store.Del(ctx)
}

var _ StateReadWriter = (*StoreStateReadWriter)(nil)
