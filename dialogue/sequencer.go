// Package dialogue walks the user through the fields to fill, one question at a time.
package dialogue

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tbxark/formdoc/patch"
	"github.com/tbxark/formdoc/types"
)

// Record is one submitted answer kept for undo.
type Record struct {
	Field types.FieldName `json:"field"`
	Value string          `json:"value"`
	Index int             `json:"index"`
}

// Sequencer is AwaitingField(Index) while Index < len(Sequence) and Complete afterwards.
// It is plain data so session stores can serialise it.
type Sequencer struct {
	Sequence []types.FieldName                   `json:"sequence"`
	Index    int                                 `json:"index"`
	Answers  patch.Answers                       `json:"answers"`
	History  []Record                            `json:"history"`
	Derived  map[types.FieldName]types.FieldName `json:"derived,omitempty"`
}

// NewSequencer starts at the first field. seed carries answers kept from an earlier walk.
func NewSequencer(sequence []types.FieldName, rules types.Rules, seed patch.Answers) *Sequencer {
	answers := seed.Clone()
	return &Sequencer{
		Sequence: append([]types.FieldName(nil), sequence...),
		Answers:  answers,
		Derived:  rules.Derived,
	}
}

// Clone returns a deep copy.
func (s *Sequencer) Clone() *Sequencer {
	if s == nil {
		return nil
	}
	return &Sequencer{
		Sequence: slices.Clone(s.Sequence),
		Index:    s.Index,
		Answers:  s.Answers.Clone(),
		History:  slices.Clone(s.History),
		Derived:  maps.Clone(s.Derived),
	}
}

func (s *Sequencer) rules() types.Rules {
	return types.Rules{Derived: s.Derived}
}

func (s *Sequencer) Complete() bool {
	return s.Index >= len(s.Sequence)
}

func (s *Sequencer) Current() (types.FieldName, bool) {
	if s.Complete() || s.Index < 0 {
		return "", false
	}
	return s.Sequence[s.Index], true
}

func (s *Sequencer) CanGoBack() bool {
	return s.Index > 0
}

// Position is the 1-based number of the current question.
func (s *Sequencer) Position() int {
	return s.Index + 1
}

func (s *Sequencer) Total() int {
	return len(s.Sequence)
}

// Pending lists the fields from the current one to the end.
func (s *Sequencer) Pending() []types.FieldName {
	if s.Complete() {
		return nil
	}
	return s.Sequence[s.Index:]
}

// Submit answers the current field and copies the value to every field derived from it.
func (s *Sequencer) Submit(value string) error {
	field, ok := s.Current()
	if !ok {
		return types.ErrSequenceComplete
	}
	ops := []patch.Operation{patch.Add(field, value)}
	for _, derived := range s.rules().DerivedFrom(field) {
		ops = append(ops, patch.Add(derived, value))
	}
	answers, err := patch.Apply(s.Answers, ops)
	if err != nil {
		return fmt.Errorf("failed to store answer for %s: %w", field, err)
	}
	s.Answers = answers
	s.History = append(s.History, Record{Field: field, Value: value, Index: s.Index})
	s.Index++
	return nil
}

// GoBack steps to the previous field and forgets its answer, including derived copies.
func (s *Sequencer) GoBack() error {
	if !s.CanGoBack() {
		return types.ErrNavigationOutOfRange
	}
	prev := s.Index - 1
	field := s.Sequence[prev]
	if n := len(s.History); n > 0 {
		field = s.History[n-1].Field
	}
	ops := []patch.Operation{patch.Remove(field)}
	for _, derived := range s.rules().DerivedFrom(field) {
		ops = append(ops, patch.Remove(derived))
	}
	answers, err := patch.Apply(s.Answers, ops)
	if err != nil {
		return fmt.Errorf("failed to drop answer for %s: %w", field, err)
	}
	s.Answers = answers
	if n := len(s.History); n > 0 {
		s.History = s.History[:n-1]
	}
	s.Index = prev
	return nil
}

// Prompt renders the current question as "(i/n) text", or "" when complete.
func (s *Sequencer) Prompt(names DisplayNames) string {
	field, ok := s.Current()
	if !ok {
		return ""
	}
	return FormatPrompt(s.Position(), s.Total(), names.Lookup(field))
}

func FormatPrompt(position, total int, text string) string {
	return fmt.Sprintf("(%d/%d) %s", position, total, text)
}
