package agent

import (
	"context"
	"time"

	"github.com/tbxark/formdoc/types"
)

// ValueProvider supplies a reserved field that is never asked.
type ValueProvider interface {
	Field() types.FieldName
	Value(ctx context.Context) (string, error)
}

const DateLayout = "02.01.2006"

type DateProvider struct {
	Name   types.FieldName
	Layout string
	Now    func() time.Time
}

func NewDateProvider() *DateProvider {
	return &DateProvider{Name: types.FieldCurrentDate, Layout: DateLayout, Now: time.Now}
}

func (p *DateProvider) Field() types.FieldName {
	return p.Name
}

func (p *DateProvider) Value(ctx context.Context) (string, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	layout := p.Layout
	if layout == "" {
		layout = DateLayout
	}
	return now().Format(layout), nil
}

type StaticProvider struct {
	Name types.FieldName
	Text string
}

func (p StaticProvider) Field() types.FieldName {
	return p.Name
}

func (p StaticProvider) Value(ctx context.Context) (string, error) {
	return p.Text, nil
}
