// Package virtualhid provides CLI-only, OS-specific adapters that satisfy
// pkg/u2fhid.ReportSink by presenting this process as a virtual HID device
// to the host. These adapters are example plumbing, not part of the core
// contract: the transport only ever depends on the ReportSink interface.
package virtualhid

import "errors"

// ErrUnsupportedPlatform is returned when setting up a device on a platform
// with no adapter wired in.
var ErrUnsupportedPlatform = errors.New("virtualhid: no adapter for this platform")

// OutputReportReceiver is the sink-facing half of pkg/u2fhid.Server, kept
// narrow so an adapter doesn't need to import the transport package.
type OutputReportReceiver interface {
	ReceiveOutputReport(reportType string, reportNum int, data []byte) bool
}
