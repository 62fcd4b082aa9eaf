// Package version records the module's canonical import path and release
// version for the benefit of the --version flag on the CLI.
package version

// mainpkg is the overall, canonical project import path under which the
// package was built.
var mainpkg = "github.com/Khushiyant/vekt"

// version indicates which version of the binary is running. Set by hand to
// the manifest schema version this build writes by default.
var version = "1.0.0"

// Package returns the canonical import path the running binary was built
// from.
func Package() string {
	return mainpkg
}

// Version returns the module version the running binary was built from.
func Version() string {
	return version
}
