package archive

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"studylobby/internal/services/lobby"
)

const schema = `
CREATE TABLE IF NOT EXISTS lobby_sessions (
    lobby_id      TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    class_name    TEXT NOT NULL,
    school        TEXT NOT NULL,
    host          TEXT NOT NULL,
    max_users     INT  NOT NULL,
    peak_members  INT  NOT NULL,
    message_count INT  NOT NULL,
    opened_at     TIMESTAMPTZ NOT NULL,
    closed_at     TIMESTAMPTZ NOT NULL,
    close_reason  TEXT NOT NULL
)`

const insertQ = `
INSERT INTO lobby_sessions
    (lobby_id, name, class_name, school, host, max_users,
     peak_members, message_count, opened_at, closed_at, close_reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (lobby_id) DO NOTHING`

// Writer persists one audit row per closed lobby. Records are enqueued by
// the coordinator and written by the Run loop; message bodies never reach
// the database, only the count does.
type Writer struct {
	db   *sql.DB
	recs chan lobby.ClosedSession
	wg   sync.WaitGroup
}

var _ lobby.Archiver = (*Writer)(nil)

func NewWriter(db *sql.DB) *Writer {
	return &Writer{
		db:   db,
		recs: make(chan lobby.ClosedSession, 128),
	}
}

// EnsureSchema creates the archive table when it is missing.
func (w *Writer) EnsureSchema(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, schema)
	return err
}

// SessionClosed never blocks the coordinator; a full queue drops the record
// with a log line rather than stalling a lobby region.
func (w *Writer) SessionClosed(rec lobby.ClosedSession) {
	select {
	case w.recs <- rec:
	default:
		zap.L().Warn("archive.record_dropped", zap.String("lobby_id", rec.LobbyID))
	}
}

// Run writes queued records until ctx is cancelled, then drains whatever the
// shutdown force-close produced.
func (w *Writer) Run(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				w.drain()
				return
			case rec := <-w.recs:
				w.persist(ctx, rec)
			}
		}
	}()
}

// Wait blocks until the Run loop has exited (and therefore drained).
func (w *Writer) Wait() { w.wg.Wait() }

func (w *Writer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case rec := <-w.recs:
			w.persist(ctx, rec)
		default:
			return
		}
	}
}

func (w *Writer) persist(ctx context.Context, rec lobby.ClosedSession) {
	_, err := w.db.ExecContext(ctx, insertQ,
		rec.LobbyID,
		rec.Name,
		rec.ClassName,
		rec.School,
		rec.Host,
		rec.MaxUsers,
		rec.PeakMembers,
		rec.MessageCount,
		rec.OpenedAt,
		rec.ClosedAt,
		rec.CloseReason,
	)
	if err != nil {
		zap.L().Error("archive.persist", zap.Error(err), zap.String("lobby_id", rec.LobbyID))
	}
}
