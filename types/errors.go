package types

import "errors"

var (
	ErrTemplateUnavailable  = errors.New("template unavailable")
	ErrNoFieldsRequired     = errors.New("selected templates require no fields")
	ErrEmptySelection       = errors.New("no templates selected")
	ErrNavigationOutOfRange = errors.New("cannot go back from the first field")
	ErrGenerationFailure    = errors.New("document generation failed")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownTemplate      = errors.New("unknown template")
	ErrSequenceComplete     = errors.New("all fields are already answered")
)
