package virtualhid

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/Microsoft/go-winio"
)

// NamedPipePath is where a companion virtual-HID bridge process connects
// to exchange raw HID reports with this process.
const NamedPipePath = `\\.\pipe\u2fhid`

// reportFrame is the wire framing over the pipe: a single length-prefixed
// report per message, the same shape the teacher's CTAPHID enumeration RPC
// used for CBOR payloads, repurposed here to carry a raw 64-byte report.
type reportFrame struct {
	length uint16
	data   []byte
}

func readReportFrame(r io.Reader) (*reportFrame, error) {
	bLen := make([]byte, 2)
	if _, err := io.ReadFull(r, bLen); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint16(bLen)

	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
	}

	return &reportFrame{length: length, data: data}, nil
}

func writeReportFrame(w io.Writer, data []byte) error {
	bLen := make([]byte, 2)
	binary.BigEndian.PutUint16(bLen, uint16(len(data)))
	if _, err := w.Write(bLen); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// WindowsBridge listens on a named pipe for a bridge process that owns the
// actual virtual HID device, forwarding reports in both directions.
type WindowsBridge struct {
	logger *slog.Logger
	pipe   io.ReadWriteCloser
}

// ListenWindowsBridge accepts a single connection on NamedPipePath.
func ListenWindowsBridge(ctx context.Context, logger *slog.Logger) (*WindowsBridge, error) {
	listener, err := winio.ListenPipe(NamedPipePath, nil)
	if err != nil {
		return nil, fmt.Errorf("virtualhid: listen pipe: %w", err)
	}

	conn, err := listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("virtualhid: accept pipe: %w", err)
	}

	return &WindowsBridge{logger: logger, pipe: conn}, nil
}

// Run reads report frames off the pipe and hands each to receiver until the
// context is cancelled or the pipe closes.
func (b *WindowsBridge) Run(ctx context.Context, receiver OutputReportReceiver) {
	for {
		if ctx.Err() != nil {
			return
		}

		frame, err := readReportFrame(b.pipe)
		if err != nil {
			if err != io.EOF {
				b.logger.Error("virtualhid pipe read error", "error", err)
			}
			return
		}

		if !receiver.ReceiveOutputReport("Output", 0, frame.data) {
			b.logger.Warn("virtualhid output report not consumed", "len", len(frame.data))
		}
	}
}

// SendInputReport implements pkg/u2fhid.ReportSink.
func (b *WindowsBridge) SendInputReport(report []byte) error {
	return writeReportFrame(b.pipe, report)
}

func (b *WindowsBridge) Close() error {
	return b.pipe.Close()
}
