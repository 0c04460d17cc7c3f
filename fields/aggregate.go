// Package fields merges the placeholder fields of several templates into the ordered list
// the dialogue walks.
package fields

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tbxark/formdoc/catalog"
	"github.com/tbxark/formdoc/types"
)

type Extractor interface {
	Extract(ctx context.Context, ref string) []types.FieldName
}

// Result holds every field the selected templates need and the subset asked from the user.
type Result struct {
	Fields []types.FieldName `json:"fields"`
	Inputs []types.FieldName `json:"inputs"`
}

type Aggregator struct {
	catalog   *catalog.Catalog
	extractor Extractor
	rules     types.Rules
}

func NewAggregator(c *catalog.Catalog, extractor Extractor, rules types.Rules) *Aggregator {
	return &Aggregator{catalog: c, extractor: extractor, rules: rules}
}

// Aggregate orders the fields of the selected templates by their first appearance across the
// whole category, so toggling templates never reshuffles the questions.
func (a *Aggregator) Aggregate(ctx context.Context, category string, selected []string) (Result, error) {
	cat, err := a.catalog.Category(category)
	if err != nil {
		return Result{}, err
	}
	for _, name := range selected {
		if _, ok := cat.Template(name); !ok {
			return Result{}, fmt.Errorf("%w: %q in category %q", types.ErrUnknownTemplate, name, category)
		}
	}

	extracted := make(map[string][]types.FieldName, len(cat.Templates))
	var categoryOrder []types.FieldName
	seen := make(map[types.FieldName]struct{})
	for _, tpl := range cat.Templates {
		fields := a.extractor.Extract(ctx, tpl.File)
		extracted[tpl.Name] = fields
		for _, f := range fields {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			categoryOrder = append(categoryOrder, f)
		}
	}

	union := make(map[types.FieldName]struct{})
	for _, name := range selected {
		for _, f := range extracted[name] {
			union[f] = struct{}{}
		}
	}

	ordered := make([]types.FieldName, 0, len(union))
	for _, f := range categoryOrder {
		if _, ok := union[f]; ok {
			ordered = append(ordered, f)
		}
	}
	for _, rule := range a.rules.Adjacent {
		ordered = placeAfter(ordered, rule.Anchor, rule.Field)
	}

	inputs := make([]types.FieldName, 0, len(ordered))
	for _, f := range ordered {
		if !a.rules.IsDerived(f) {
			inputs = append(inputs, f)
		}
	}
	slog.Debug("Aggregated fields", "category", category, "selected", selected, "fields", ordered, "inputs", inputs)
	return Result{Fields: ordered, Inputs: inputs}, nil
}

// placeAfter moves field to the position right after anchor when both are present.
func placeAfter(seq []types.FieldName, anchor, field types.FieldName) []types.FieldName {
	if anchor == field {
		return seq
	}
	fi := slices.Index(seq, field)
	if fi < 0 || !slices.Contains(seq, anchor) {
		return seq
	}
	out := slices.Delete(slices.Clone(seq), fi, fi+1)
	ai := slices.Index(out, anchor)
	return slices.Insert(out, ai+1, field)
}
