// Command u2fdevice presents this process as a virtual U2F security key to
// the host operating system, backed by one of the pkg/backend credential
// stores.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-u2f/authenticator/pkg/apdu"
	"github.com/go-u2f/authenticator/pkg/backend"
	"github.com/go-u2f/authenticator/pkg/options"
	"github.com/go-u2f/authenticator/pkg/u2fhid"
	"github.com/go-u2f/authenticator/pkg/virtualhid"
)

func main() {
	backendName := flag.String("backend", "unsafe", "credential backend: unsafe, encrypted, database")
	password := flag.String("password", "", "password for the encrypted backend")
	dsn := flag.String("dsn", "file:u2fdevice.db", "sqlite DSN for the database backend")
	flag.Parse()

	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))

	b, closeBackend, err := selectBackend(*backendName, *password, *dsn)
	if err != nil {
		panic(err)
	}
	defer closeBackend()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, err := newDevice(ctx, logger)
	if err != nil {
		panic(err)
	}
	defer dev.Close()

	dispatcher := apdu.NewDispatcher(b, options.WithLogger(logger))
	srv := u2fhid.NewServer(dispatcher, b, dev, options.WithLogger(logger))

	logger.Info("u2fdevice running", "backend", *backendName)
	dev.Run(ctx, srv)
}

func selectBackend(name, password, dsn string) (backend.Backend, func() error, error) {
	noop := func() error { return nil }
	switch name {
	case "unsafe":
		return backend.NewUnsafe(), noop, nil
	case "encrypted":
		if password == "" {
			return nil, nil, fmt.Errorf("u2fdevice: -password is required for the encrypted backend")
		}
		return backend.NewEncrypted(password), noop, nil
	case "database":
		db, err := backend.OpenDatabase(dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("u2fdevice: unknown backend %q", name)
	}
}

// device is the platform-specific half of main, satisfied by a LinuxDevice
// or WindowsBridge wrapper. It is also a u2fhid.ReportSink.
type device interface {
	Run(ctx context.Context, receiver virtualhid.OutputReportReceiver)
	SendInputReport(report []byte) error
	Close() error
}
