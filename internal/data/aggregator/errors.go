package aggregator

import "fmt"

// Error marks a processor that could not produce its section of the result.
type Error struct {
	Processor string
	Msg       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s analysis failed: %s", e.Processor, e.Msg)
}

func procErrorf(processor, format string, args ...any) *Error {
	return &Error{Processor: processor, Msg: fmt.Sprintf(format, args...)}
}
