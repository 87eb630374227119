package page

import "io"

// Transport receives the output of a page execution.
type Transport interface {
	// Header sends one raw header line ("HTTP/1.1 303 See Other",
	// "Location: /app/"). Lines are sent in queue order.
	Header(line string) error

	// Reset discards any body output buffered so far.
	Reset()

	io.Writer

	// Flush sends the buffered body.
	Flush() error
}
