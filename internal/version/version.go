// ABOUTME: Version constants for the pcmread tools
// ABOUTME: Reported by the command-line binaries
package version

const (
	Version      = "0.1.0"
	Product      = "pcmread"
	Manufacturer = "Resonate-Protocol"
)
