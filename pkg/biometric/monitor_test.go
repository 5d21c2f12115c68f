package biometric

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	events  chan CaptureEvent
	enabled atomic.Bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan CaptureEvent, 4)}
}

func (f *fakeSource) Enable()  { f.enabled.Store(true) }
func (f *fakeSource) Disable() { f.enabled.Store(false) }
func (f *fakeSource) Events() <-chan CaptureEvent {
	return f.events
}

type thresholdMatcher struct{}

func (thresholdMatcher) Match(stored, live []byte) (int, error) {
	if string(stored) == string(live) {
		return 100, nil
	}
	return 0, nil
}

func TestMonitor_ArmEnablesSource(t *testing.T) {
	source := newFakeSource()
	m := NewMonitor(source, thresholdMatcher{})
	t.Cleanup(m.Shutdown)

	m.Arm()
	require.Eventually(t, source.enabled.Load, time.Second, 5*time.Millisecond)
}

func TestMonitor_CaptureMakesTemplateLive(t *testing.T) {
	source := newFakeSource()
	m := NewMonitor(source, thresholdMatcher{})
	t.Cleanup(m.Shutdown)

	m.Arm()
	template := []byte("template-a")
	source.events <- CaptureEvent{Kind: EventCaptured, Template: template}

	require.Eventually(t, func() bool {
		return m.LiveTemplate() != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, template, m.LiveTemplate())
}

func TestMonitor_ConsumeClearsTemplate(t *testing.T) {
	source := newFakeSource()
	m := NewMonitor(source, thresholdMatcher{})
	t.Cleanup(m.Shutdown)

	m.Arm()
	source.events <- CaptureEvent{Kind: EventCaptured, Template: []byte("template-a")}
	require.Eventually(t, func() bool { return m.LiveTemplate() != nil }, time.Second, 5*time.Millisecond)

	m.Consume()
	require.Eventually(t, func() bool { return m.LiveTemplate() == nil }, time.Second, 5*time.Millisecond)
	assert.False(t, source.enabled.Load())
}

func TestMonitor_RemovedDiscardsTemplate(t *testing.T) {
	source := newFakeSource()
	m := NewMonitor(source, thresholdMatcher{})
	t.Cleanup(m.Shutdown)

	m.Arm()
	source.events <- CaptureEvent{Kind: EventCaptured, Template: []byte("template-a")}
	require.Eventually(t, func() bool { return m.LiveTemplate() != nil }, time.Second, 5*time.Millisecond)

	source.events <- CaptureEvent{Kind: EventRemoved}
	require.Eventually(t, func() bool { return m.LiveTemplate() == nil }, time.Second, 5*time.Millisecond)
}

func TestMonitor_MatchScore(t *testing.T) {
	m := NewMonitor(newFakeSource(), thresholdMatcher{})
	t.Cleanup(m.Shutdown)

	score, err := m.MatchScore([]byte("x"), []byte("x"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, MatchThreshold)

	score, err = m.MatchScore([]byte("x"), []byte("y"))
	require.NoError(t, err)
	assert.Less(t, score, MatchThreshold)
}

func TestMonitor_ShutdownDisablesSourceIfActive(t *testing.T) {
	source := newFakeSource()
	m := NewMonitor(source, thresholdMatcher{})

	m.Arm()
	require.Eventually(t, source.enabled.Load, time.Second, 5*time.Millisecond)

	m.Shutdown()
	assert.False(t, source.enabled.Load())
}
