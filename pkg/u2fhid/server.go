// Package u2fhid implements the U2FHID transport: fixed 64-byte frame
// encoding/decoding, channel allocation, multi-frame reassembly, and
// inter-channel locking, sitting between an OS-specific virtual HID
// collaborator and the APDU dispatcher.
package u2fhid

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/go-u2f/authenticator/pkg/options"
)

// MessageHandler processes a raw APDU request (the MSG command's payload)
// and returns a raw APDU response, including its trailing status word.
type MessageHandler interface {
	HandleAPDU(request []byte) []byte
}

// WinkBackend reports whether the credential backend supports the WINK
// command and performs the identification action.
type WinkBackend interface {
	SupportsWink() bool
	Wink()
}

// ReportSink is how the transport emits input reports toward the host. It
// is implemented by a concrete OS driver outside this package, or by an
// in-memory fake in tests.
type ReportSink interface {
	SendInputReport(report []byte) error
}

// Server is the single-threaded cooperative U2FHID state machine. A report
// arrives via ReceiveOutputReport, is processed to completion — possibly
// emitting several frames through sink — and only then is the next report
// accepted. There is no concurrency inside the state machine itself.
type Server struct {
	logger *slog.Logger
	now    func() time.Time

	messages MessageHandler
	backend  WinkBackend
	sink     ReportSink

	channelCounter uint32
	slots          [reassemblySlots]reassemblySlot
	lock           channelLock
}

func NewServer(messages MessageHandler, backend WinkBackend, sink ReportSink, opts ...options.Option) *Server {
	oo := options.NewOptions(opts...)

	return &Server{
		logger:   oo.Logger,
		now:      oo.Now,
		messages: messages,
		backend:  backend,
		sink:     sink,
	}
}

// ReceiveOutputReport accepts one HID output report. Only Output reports
// with reportNum 0 and size 64 (tolerating a single leading report-id byte)
// are consumed; it returns whether the report was recognized as ours.
func (s *Server) ReceiveOutputReport(reportType string, reportNum int, data []byte) bool {
	if reportType != "Output" || reportNum != 0 {
		return false
	}

	data = stripLeadingReportIDByte(data)
	f, err := decodeFrame(data)
	if err != nil {
		return false
	}

	s.handleFrame(f)
	return true
}

func (s *Server) handleFrame(f frame) {
	now := s.now()
	logger := s.logger.With("trace_id", uuid.NewString(), "cid", f.cid.uint32())

	slot := s.findSlot(f.cid, now)

	if !f.continuation {
		if slot != nil {
			s.cancelSlot(slot)
		}

		if int(f.payloadLen) <= len(f.payload) {
			logger.Debug("u2fhid dispatching single-frame request", "cmd", f.command, "len", f.payloadLen)
			s.dispatch(f.cid, f.command, f.payload, now, logger)
			return
		}

		newSlot := s.findFreeSlot(now)
		if newSlot == nil {
			logger.Warn("u2fhid no free reassembly slot")
			s.sendError(f.cid, ErrChannelBusy)
			return
		}

		newSlot.inUse = true
		newSlot.cid = f.cid
		newSlot.command = f.command
		newSlot.total = f.payloadLen
		newSlot.accumulated = append([]byte(nil), f.payload...)
		newSlot.nextSeq = 0
		newSlot.expiresAt = now.Add(reassemblyTimeoutSeconds * time.Second)
		return
	}

	if slot == nil {
		logger.Warn("u2fhid continuation frame with no pending reassembly")
		s.sendError(f.cid, ErrInvalidSeq)
		return
	}

	if f.seq != slot.nextSeq {
		logger.Warn("u2fhid out-of-sequence continuation frame", "got", f.seq, "want", slot.nextSeq)
		s.cancelSlot(slot)
		s.sendError(f.cid, ErrInvalidSeq)
		return
	}

	slot.accumulated = append(slot.accumulated, f.payload...)
	slot.nextSeq++

	if len(slot.accumulated) >= int(slot.total) {
		payload := slot.accumulated[:slot.total]
		cmd := slot.command
		s.cancelSlot(slot)
		logger.Debug("u2fhid dispatching reassembled request", "cmd", cmd, "len", len(payload))
		s.dispatch(f.cid, cmd, payload, now, logger)
	}
}

func (s *Server) dispatch(cid ChannelID, cmd Command, payload []byte, now time.Time, logger *slog.Logger) {
	if s.lock.blocks(cid, now) && cmd != CmdInit && cmd != CmdPing {
		logger.Info("u2fhid command blocked by channel lock", "locked_by", s.lock.channel.uint32())
		s.sendError(cid, ErrLockRequired)
		return
	}

	switch cmd {
	case CmdInit:
		s.handleInit(cid, payload, logger)
	case CmdMsg:
		s.handleMsg(cid, payload, logger)
	case CmdPing:
		s.send(cid, CmdPing, payload)
	case CmdWink:
		s.handleWink(cid, payload, logger)
	case CmdLock:
		s.handleLock(cid, payload, now, logger)
	default:
		logger.Warn("u2fhid unknown command", "cmd", cmd)
		s.sendError(cid, ErrInvalidCmd)
	}
}

func (s *Server) handleInit(cid ChannelID, payload []byte, logger *slog.Logger) {
	if cid != broadcastCID {
		logger.Warn("u2fhid INIT on non-broadcast channel")
		s.sendError(cid, ErrInvalidCmd)
		return
	}
	if len(payload) != 8 {
		s.sendError(cid, ErrInvalidLen)
		return
	}

	s.channelCounter++
	newCID := channelIDFromUint32(s.channelCounter)

	resp := make([]byte, 17)
	copy(resp[0:8], payload)
	copy(resp[8:12], newCID[:])
	resp[12] = protocolVersion
	resp[13] = deviceVersionMajor
	resp[14] = deviceVersionMinor
	resp[15] = deviceVersionBuild
	resp[16] = capabilityLock
	if s.backend != nil && s.backend.SupportsWink() {
		resp[16] |= capabilityWink
	}

	logger.Info("u2fhid minted channel", "new_cid", newCID.uint32())
	s.send(broadcastCID, CmdInit, resp)
}

func (s *Server) handleMsg(cid ChannelID, payload []byte, logger *slog.Logger) {
	if cid == broadcastCID {
		s.sendError(cid, ErrInvalidCmd)
		return
	}

	resp := s.messages.HandleAPDU(payload)
	logger.Debug("u2fhid MSG handled", "resp_len", len(resp))
	s.send(cid, CmdMsg, resp)
}

func (s *Server) handleWink(cid ChannelID, payload []byte, logger *slog.Logger) {
	if cid == broadcastCID {
		s.sendError(cid, ErrInvalidCmd)
		return
	}
	if len(payload) != 0 {
		s.sendError(cid, ErrInvalidLen)
		return
	}
	if s.backend != nil {
		s.backend.Wink()
	}
	logger.Info("u2fhid wink")
	s.send(cid, CmdWink, nil)
}

func (s *Server) handleLock(cid ChannelID, payload []byte, now time.Time, logger *slog.Logger) {
	if len(payload) != 1 {
		s.sendError(cid, ErrInvalidLen)
		return
	}
	seconds := payload[0]
	if seconds > maxLockSeconds {
		s.sendError(cid, ErrInvalidPar)
		return
	}

	s.lock = channelLock{channel: cid, until: now.Add(time.Duration(seconds) * time.Second)}
	logger.Info("u2fhid channel locked", "seconds", seconds)
	s.send(cid, CmdLock, nil)
}

func (s *Server) findSlot(cid ChannelID, now time.Time) *reassemblySlot {
	for i := range s.slots {
		if !s.slots[i].free(now) && s.slots[i].cid == cid {
			return &s.slots[i]
		}
	}
	return nil
}

func (s *Server) findFreeSlot(now time.Time) *reassemblySlot {
	for i := range s.slots {
		if s.slots[i].free(now) {
			return &s.slots[i]
		}
	}
	return nil
}

func (s *Server) cancelSlot(slot *reassemblySlot) {
	*slot = reassemblySlot{}
}

func (s *Server) send(cid ChannelID, cmd Command, payload []byte) {
	if len(payload) > maxPayload {
		s.logger.Error("u2fhid response exceeds max payload", "len", len(payload))
		s.sendError(cid, ErrOther)
		return
	}
	for _, report := range encodeResponse(cid, cmd, payload) {
		if err := s.sink.SendInputReport(report); err != nil {
			s.logger.Error("u2fhid failed to send input report", "error", err)
			return
		}
	}
}

func (s *Server) sendError(cid ChannelID, code ErrorCode) {
	for _, report := range encodeErrorResponse(cid, code) {
		if err := s.sink.SendInputReport(report); err != nil {
			s.logger.Error("u2fhid failed to send error report", "error", err)
			return
		}
	}
}
