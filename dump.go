package crossbar

import (
	"fmt"
	"io"

	"github.com/cloudyourcar/crossbar/internal/constants"
)

// Dump writes every line's name and current value to sink in the original
// diagnostic format ("cbar: <name> = <value>"), one per line. It is
// read-only: no line state changes and no mutex is held, matching the
// original implementation's cbar_dump.
func (cb *Crossbar) Dump(sink io.Writer) error {
	for i := range cb.configs {
		line := fmt.Sprintf("cbar: %s = %d%s", cb.configs[i].Name, cb.Value(i), constants.DumpLineEnding)
		if _, err := io.WriteString(sink, line); err != nil {
			return err
		}
	}
	return nil
}
