package display

import (
	"fmt"
	"io"

	"github.com/agaudioflow/audioflow/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `    _             _ _       _____ _
   / \  _   _  __| (_) ___ |  ___| | _____      __
  / _ \| | | |/ _`+"`"+` | |/ _ \| |_  | |/ _ \ \ /\ / /
 / ___ \ |_| | (_| | | (_) |  _| | | (_) \ V  V /
/_/   \_\__,_|\__,_|_|\___/|_|   |_|\___/ \_/\_/
`)
	fmt.Fprint(w, term.NC)
}
