package main

import (
	"context"
	"log/slog"

	"github.com/psanford/uhid"

	"github.com/go-u2f/authenticator/pkg/u2fhid"
	"github.com/go-u2f/authenticator/pkg/virtualhid"
)

// linuxDevice adapts virtualhid.LinuxDevice's Run, which takes the events
// channel explicitly, to the device interface's simpler signature.
type linuxDevice struct {
	*virtualhid.LinuxDevice
	events <-chan uhid.Event
}

func (d *linuxDevice) Run(ctx context.Context, receiver virtualhid.OutputReportReceiver) {
	d.LinuxDevice.Run(ctx, d.events, receiver)
}

func newDevice(ctx context.Context, logger *slog.Logger) (device, error) {
	dev, events, err := virtualhid.NewLinuxDevice(ctx, logger, "u2fdevice", u2fhid.ReportDescriptor())
	if err != nil {
		return nil, err
	}
	return &linuxDevice{LinuxDevice: dev, events: events}, nil
}
