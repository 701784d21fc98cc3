// ABOUTME: Build and product identification
// ABOUTME: Version is overridden at link time with -ldflags "-X ...version.Version=v1.2.3"
package version

import "fmt"

const (
	Product      = "dynwave"
	Manufacturer = "dynwave-go"
)

// Version of the running binary
var Version = "0.1.0-dev"

// String returns the product and version for banners and logs
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}

// Banner adds the manufacturer, for -version output and tool headers
func Banner() string {
	return fmt.Sprintf("%s (%s)", String(), Manufacturer)
}
