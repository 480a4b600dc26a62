// Package buildinfo holds the version identity reported by --version.
package buildinfo

import "fmt"

const (
	Major    = 0
	Minor    = 6
	Build    = 2
	Revision = 38
)

const (
	ProductName        = "protodec"
	ProductDescription = "protobuf ver2 decompiler"
)

// String renders the four-part major.minor.build.revision version
// number shown in --version output.
func String() string {
	return fmt.Sprintf("%d.%d.%d.%d", Major, Minor, Build, Revision)
}
