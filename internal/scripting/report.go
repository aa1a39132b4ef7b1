package scripting

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"
)

// ReportError writes a script error to w. Verbose output includes the full
// stack trace; otherwise only the error and its top frame are shown.
func ReportError(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}
	var msg string
	var interrupted *goja.InterruptedError
	var exception *goja.Exception
	switch {
	case errors.As(err, &interrupted):
		msg = fmt.Sprintf("Interrupted: %v", interrupted.Value())
		if verbose {
			msg = "Interrupted: " + interrupted.String()
		}
	case errors.As(err, &exception):
		if verbose {
			msg = exception.String()
		} else {
			msg = exception.Error()
		}
	default:
		msg = "Error: " + err.Error()
	}
	_, _ = fmt.Fprintln(w, strings.TrimRight(msg, "\n"))
}
