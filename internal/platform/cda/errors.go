package cda

import "fmt"

// ConfigError reports an authoring bug: the engine was asked to build with
// configuration that can never work (e.g. a builder type with no template
// identity entry). It is fatal and surfaced immediately.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "cda: configuration: " + e.Msg
}

// StructuralError reports input that cannot produce a conformant tree:
// a capability-contract field required to choose the tree shape is absent,
// or a section that requires entries received none. It is fatal at build
// time; merely unpopulated optional data never raises it.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return "cda: structural: " + e.Msg
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

func structuralErrorf(format string, args ...interface{}) error {
	return &StructuralError{Msg: fmt.Sprintf(format, args...)}
}
