package archive

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"studylobby/internal/services/lobby"
)

func TestEnsureSchema(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS lobby_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := NewWriter(db)
	req.NoError(w.EnsureSchema(context.Background()))
	req.NoError(mock.ExpectationsWereMet())
}

func TestWriterPersistsClosedSession(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	opened := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	closed := opened.Add(45 * time.Minute)

	mock.ExpectExec("INSERT INTO lobby_sessions").
		WithArgs("lobby-1", "Calc Study", "MAT101", "State U", "alice",
			2, 2, 17, opened, closed, lobby.ReasonHostLeft).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWriter(db)
	w.Run(ctx)

	w.SessionClosed(lobby.ClosedSession{
		LobbyID:      "lobby-1",
		Name:         "Calc Study",
		ClassName:    "MAT101",
		School:       "State U",
		Host:         "alice",
		MaxUsers:     2,
		PeakMembers:  2,
		MessageCount: 17,
		OpenedAt:     opened,
		ClosedAt:     closed,
		CloseReason:  lobby.ReasonHostLeft,
	})

	req.Eventually(func() bool {
		return mock.ExpectationsWereMet() == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	w.Wait()
}

func TestWriterDrainsOnShutdown(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO lobby_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Run only ever sees a cancelled context

	w := NewWriter(db)
	w.SessionClosed(lobby.ClosedSession{LobbyID: "lobby-1", CloseReason: lobby.ReasonShutdown})
	w.Run(ctx)
	w.Wait()

	req.NoError(mock.ExpectationsWereMet())
}
