package vm

import "io"

// Sink is the output collaborator print and printn write to. A failing sink
// surfaces as a fatal IOError.
type Sink interface {
	Write(text string, newline bool) error
}

// WriterSink adapts any io.Writer to the Sink boundary.
type WriterSink struct {
	Out io.Writer
}

func (s *WriterSink) Write(text string, newline bool) error {
	if newline {
		text += "\n"
	}
	_, err := io.WriteString(s.Out, text)
	return err
}
