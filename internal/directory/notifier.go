package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studylobby/internal/services/lobby"
)

// Channel carries one JSON event per directory-relevant change (create,
// close, membership count). Edge caches subscribe and re-fetch listings for
// the affected class/school pair.
const Channel = "lobbies:directory:events"

type ChangeEvent struct {
	ClassName string `json:"className"`
	School    string `json:"school"`
}

// Publisher decouples the lobby coordinator from Redis round-trips: changes
// are enqueued by the coordinator (possibly while a lobby region is held)
// and published by the Run loop.
type Publisher struct {
	rdc    *redis.Client
	events chan ChangeEvent
}

var _ lobby.DirectoryNotifier = (*Publisher)(nil)

func NewPublisher(rdc *redis.Client) *Publisher {
	return &Publisher{
		rdc:    rdc,
		events: make(chan ChangeEvent, 64),
	}
}

// DirectoryChanged never blocks; under backpressure the event is dropped,
// which only delays an edge cache refresh.
func (p *Publisher) DirectoryChanged(className, school string) {
	select {
	case p.events <- ChangeEvent{ClassName: className, School: school}:
	default:
		zap.L().Warn("directory.event_dropped",
			zap.String("class", className),
			zap.String("school", school),
		)
	}
}

// Run publishes queued events until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-p.events:
				p.publish(ctx, ev)
			}
		}
	}()
}

func (p *Publisher) publish(ctx context.Context, ev ChangeEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.rdc.Publish(pubCtx, Channel, payload).Err(); err != nil {
		zap.L().Warn("directory.publish", zap.Error(err))
	}
}
