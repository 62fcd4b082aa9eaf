package version

import (
	"fmt"
	"io"
	"os"
)

// FprintVersion outputs the version string to the writer, in the form
// "<cmd> <project> <version>", followed by a newline.
func FprintVersion(w io.Writer) {
	fmt.Fprintln(w, os.Args[0], Package(), Version())
}

// PrintVersion outputs the version information, from FprintVersion, to
// stdout.
func PrintVersion() {
	FprintVersion(os.Stdout)
}
