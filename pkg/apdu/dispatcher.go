// Package apdu implements the U2F application protocol: the APDU envelope,
// REGISTER, AUTHENTICATE, and VERSION, sitting between the U2FHID transport
// and a credential backend.
package apdu

import (
	"log/slog"

	"github.com/go-u2f/authenticator/pkg/backend"
	"github.com/go-u2f/authenticator/pkg/crypto"
	"github.com/go-u2f/authenticator/pkg/options"
)

// Dispatcher implements u2fhid.MessageHandler by routing a raw APDU
// request to the REGISTER, AUTHENTICATE, or VERSION handler and wrapping
// the result in a two-byte trailing status word.
type Dispatcher struct {
	backend backend.Backend
	hasher  crypto.Hasher
	logger  *slog.Logger
}

func NewDispatcher(b backend.Backend, opts ...options.Option) *Dispatcher {
	oo := options.NewOptions(opts...)

	return &Dispatcher{
		backend: b,
		hasher:  crypto.Sum256,
		logger:  oo.Logger,
	}
}

// HandleAPDU satisfies u2fhid.MessageHandler.
func (d *Dispatcher) HandleAPDU(request []byte) []byte {
	cla, ins, p1, p2, body, err := parseEnvelope(request)
	if err != nil {
		d.logger.Warn("apdu malformed envelope", "error", err)
		return statusResponse(nil, SWWrongLength)
	}
	if cla != 0 {
		return statusResponse(nil, SWClaNotSupported)
	}

	switch ins {
	case InsRegister:
		return d.register(body)
	case InsAuthenticate:
		return d.authenticate(p1, body)
	case InsVersion:
		_ = p2
		return statusResponse([]byte(versionString), SWNoError)
	default:
		d.logger.Warn("apdu unsupported instruction", "ins", ins)
		return statusResponse(nil, SWInsNotSupported)
	}
}
