/*
 * Console output.
 *
 * Writes every event as a single JSON line to the stdout or to a file
 */

package console

import (
	"io"

	"github.com/cert-lv/abusefinder/pdk"
	"github.com/rs/zerolog"
)

const (
	Name    = "console"
	Version = "1.0.0"
)

type Plugin struct {

	// Inherit default configuration fields
	output *pdk.Output

	// Custom fields
	writer io.Writer
	closer io.Closer
	logger zerolog.Logger
}

func New() *Plugin {
	return &Plugin{}
}

/*
 * Create a plugin instance writing to the given writer,
 * "access.file" is ignored then
 */
func NewWithWriter(w io.Writer) *Plugin {
	return &Plugin{writer: w}
}
