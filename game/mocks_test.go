package game

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Devraj-sh/Promptbattle/evaluator"
	"github.com/stretchr/testify/mock"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close() {
	m.Called()
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- SubjectWordPicker ---

type MockSubjectWordPicker struct {
	mock.Mock
}

func (m *MockSubjectWordPicker) Pick(count int) []string {
	args := m.Called(count)
	return args.Get(0).([]string)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- ArtifactGenerator ---

type MockArtifactGenerator struct {
	mock.Mock
}

func (m *MockArtifactGenerator) Generate(ctx context.Context, subjectWord, instruction string) string {
	args := m.Called(ctx, subjectWord, instruction)
	return args.String(0)
}

func (m *MockArtifactGenerator) Fallback(subjectWord string) string {
	args := m.Called(subjectWord)
	return args.String(0)
}

// --- PromptEvaluator ---

type MockPromptEvaluator struct {
	mock.Mock
}

func (m *MockPromptEvaluator) Evaluate(ctx context.Context, text, challenge string, levelID *int) (evaluator.Score, error) {
	args := m.Called(ctx, text, challenge, levelID)
	return args.Get(0).(evaluator.Score), args.Error(1)
}

// --- Dispatcher ---

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, connID string, event InboundEvent) {
	m.Called(ctx, connID, event)
}

func (m *MockDispatcher) Disconnect(connID string) {
	m.Called(connID)
}

// --- Transport ---

type sentEvent struct {
	to    string
	event OutboundEvent
}

// recordingTransport keeps everything rooms send so async tests can inspect
// it after the fact.
type recordingTransport struct {
	locker sync.Mutex
	sent   []sentEvent
}

func (rt *recordingTransport) Send(to string, event OutboundEvent) {
	rt.locker.Lock()
	defer rt.locker.Unlock()
	rt.sent = append(rt.sent, sentEvent{to: to, event: event})
}

func (rt *recordingTransport) Broadcast(to []string, event OutboundEvent) {
	rt.locker.Lock()
	defer rt.locker.Unlock()
	for _, id := range to {
		rt.sent = append(rt.sent, sentEvent{to: id, event: event})
	}
}

func (rt *recordingTransport) eventsFor(to string) []OutboundEvent {
	rt.locker.Lock()
	defer rt.locker.Unlock()
	events := []OutboundEvent{}
	for _, s := range rt.sent {
		if s.to == to {
			events = append(events, s.event)
		}
	}
	return events
}

func (rt *recordingTransport) lastFor(to, name string) (OutboundEvent, bool) {
	events := rt.eventsFor(to)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event == name {
			return events[i], true
		}
	}
	return OutboundEvent{}, false
}

// --- helpers ---

type fakeClock struct {
	locker sync.Mutex
	now    time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.locker.Lock()
	defer c.locker.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// idSequence hands out the given ids in order, then p<n>.
func idSequence(ids ...string) func() string {
	var locker sync.Mutex
	n := 0
	return func() string {
		locker.Lock()
		defer locker.Unlock()
		n++
		if n <= len(ids) {
			return ids[n-1]
		}
		return "p" + strconv.Itoa(n)
	}
}
