// ABOUTME: Version constants for voicestream
// ABOUTME: Reported by the CLI banner and the -version flag
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the product name
	Product = "voicestream"

	// Manufacturer identifies the publisher
	Manufacturer = "Resonate Protocol"
)
