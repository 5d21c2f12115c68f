package virtualhid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/psanford/uhid"
)

const busUSB = 0x03

// LinuxDevice backs a virtual /dev/uhid device and forwards its Output
// events into a u2fhid.Server, and the server's SendInputReport calls back
// out through the kernel's Input2 event.
type LinuxDevice struct {
	logger *slog.Logger
	dev    *uhid.Device
}

// NewLinuxDevice creates and opens a /dev/uhid device named name, advertising
// the given report descriptor.
func NewLinuxDevice(ctx context.Context, logger *slog.Logger, name string, descriptor []byte) (*LinuxDevice, <-chan uhid.Event, error) {
	dev, err := uhid.NewDevice(name, descriptor)
	if err != nil {
		return nil, nil, fmt.Errorf("virtualhid: create device: %w", err)
	}
	dev.Data.Bus = busUSB
	dev.Data.VendorID = 0x15d9
	dev.Data.ProductID = 0x0a37

	events, err := dev.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("virtualhid: open device: %w", err)
	}

	return &LinuxDevice{logger: logger, dev: dev}, events, nil
}

// Run drains events off the channel returned by NewLinuxDevice, handing each
// Output event to receiver until the context is cancelled or the channel
// closes.
func (d *LinuxDevice) Run(ctx context.Context, events <-chan uhid.Event, receiver OutputReportReceiver) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Err != nil {
				d.logger.Error("virtualhid event error", "error", evt.Err)
				continue
			}
			if evt.Type != uhid.Output {
				continue
			}
			if !receiver.ReceiveOutputReport("Output", 0, evt.Data) {
				d.logger.Warn("virtualhid output report not consumed", "len", len(evt.Data))
			}
		}
	}
}

// SendInputReport implements pkg/u2fhid.ReportSink.
func (d *LinuxDevice) SendInputReport(report []byte) error {
	req := uhid.Input2Request{
		RequestType: uhid.Input2,
		DataSize:    uint16(len(report)),
	}
	copy(req.Data[:], report)
	return d.dev.WriteEvent(req)
}

func (d *LinuxDevice) Close() error {
	return d.dev.Close()
}
