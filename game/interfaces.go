package game

import (
	"context"
	"time"

	"github.com/Devraj-sh/Promptbattle/evaluator"
)

type WebsocketConnection interface {
	Close()
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// Transport pushes events to connections, addressed by connection id.
type Transport interface {
	Send(to string, event OutboundEvent)
	Broadcast(to []string, event OutboundEvent)
}

// ArtifactGenerator always resolves to something displayable.
type ArtifactGenerator interface {
	Generate(ctx context.Context, subjectWord, instruction string) string
	Fallback(subjectWord string) string
}

type PromptEvaluator interface {
	Evaluate(ctx context.Context, text, challenge string, levelID *int) (evaluator.Score, error)
}

type SubjectWordPicker interface {
	Pick(count int) []string
}

type UniqueIdGenerator interface {
	Generate() string
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// Dispatcher receives decoded client events, one connection at a time.
type Dispatcher interface {
	Dispatch(ctx context.Context, connID string, event InboundEvent)
	Disconnect(connID string)
}
