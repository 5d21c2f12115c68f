package main

import (
	"context"
	"log/slog"

	"github.com/go-u2f/authenticator/pkg/virtualhid"
)

func newDevice(ctx context.Context, logger *slog.Logger) (device, error) {
	return virtualhid.ListenWindowsBridge(ctx, logger)
}
