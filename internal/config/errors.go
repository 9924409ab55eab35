package config

import "fmt"

// ErrorKind classifies configuration failures.
type ErrorKind int

const (
	NotFound ErrorKind = iota
	ReadError
	ParseError
	MissingField
	InvalidValue
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case ReadError:
		return "read error"
	case ParseError:
		return "parse error"
	case MissingField:
		return "missing field"
	case InvalidValue:
		return "invalid value"
	}
	return "unknown"
}

// ConfigurationError is returned by Load for every configuration problem.
type ConfigurationError struct {
	Kind  ErrorKind
	Path  string
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration %s", e.Kind)
	if e.Path != "" {
		msg += fmt.Sprintf(" in %s", e.Path)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": %s", e.Field)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
