package backend

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-u2f/authenticator/pkg/biometric"
	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

type fakeCaptureSource struct {
	events chan biometric.CaptureEvent
}

func newFakeCaptureSource() *fakeCaptureSource {
	return &fakeCaptureSource{events: make(chan biometric.CaptureEvent, 4)}
}

func (f *fakeCaptureSource) Enable()  {}
func (f *fakeCaptureSource) Disable() {}
func (f *fakeCaptureSource) Events() <-chan biometric.CaptureEvent {
	return f.events
}

type exactMatcher struct{}

func (exactMatcher) Match(stored, live []byte) (int, error) {
	if bytes.Equal(stored, live) {
		return 100, nil
	}
	return 0, nil
}

func newTestBiometric(t *testing.T, source biometric.CaptureSource) *Biometric {
	t.Helper()
	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "biometric.db"))
	b, err := OpenBiometric(dsn, source, exactMatcher{})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBiometricBackend_EnrollAndAuthenticate(t *testing.T) {
	source := newFakeCaptureSource()
	b := newTestBiometric(t, source)

	template := []byte("fingerprint-template")
	source.events <- biometric.CaptureEvent{Kind: biometric.EventCaptured, Template: template}
	require.Eventually(t, b.CheckPresence, time.Second, 5*time.Millisecond)

	appA := fillHash(0xAA)
	handle, pub, err := b.Enroll(appA)
	require.NoError(t, err)
	assert.NotEmpty(t, handle)
	assert.NotEqual(t, u2ftypes.PublicKey{}, pub)

	// Enroll consumes the live template; a fresh capture is needed for
	// the presence check inside Authenticate.
	source.events <- biometric.CaptureEvent{Kind: biometric.EventCaptured, Template: template}
	require.Eventually(t, b.CheckPresence, time.Second, 5*time.Millisecond)

	signer, counter, present, err := b.Authenticate(appA, handle, true)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, uint32(0), counter)

	sig, err := signer.Sign(fillHash(0x01))
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestBiometricBackend_EnrollWithoutTemplateFails(t *testing.T) {
	source := newFakeCaptureSource()
	b := newTestBiometric(t, source)

	_, _, err := b.Enroll(fillHash(0xAA))
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestBiometricBackend_AuthenticateWithMismatchedTemplateIsNotPresent(t *testing.T) {
	source := newFakeCaptureSource()
	b := newTestBiometric(t, source)

	enrolled := []byte("enrolled-template")
	source.events <- biometric.CaptureEvent{Kind: biometric.EventCaptured, Template: enrolled}
	require.Eventually(t, b.CheckPresence, time.Second, 5*time.Millisecond)

	appA := fillHash(0xAA)
	handle, _, err := b.Enroll(appA)
	require.NoError(t, err)

	source.events <- biometric.CaptureEvent{Kind: biometric.EventCaptured, Template: []byte("different-template")}
	require.Eventually(t, b.CheckPresence, time.Second, 5*time.Millisecond)

	_, _, present, err := b.Authenticate(appA, handle, true)
	require.NoError(t, err)
	assert.False(t, present)
}
