package raffle

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/features/economy"
)

var raffleCols = []string{
	"id", "title", "ticket_cost", "max_tickets_per_user", "total_tickets_cap",
	"start_at", "end_at", "status", "draw_seed", "drawn_at",
	"sub_only", "hidden", "hidden_until_start", "created_at", "updated_at",
}

func newTestRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	economyRepo := economy.NewRepository(mock, "Sweet Coins")
	repo := NewRepository(mock, economyRepo, 20*time.Second, 30*time.Second)
	return mock, repo
}

func activeRaffleRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(raffleCols).AddRow(
		int64(1), "Test Raffle", int64(10), int64(0), int64(0),
		now.Add(-time.Hour), (*time.Time)(nil), StatusActive, (*string)(nil), (*time.Time)(nil),
		false, false, false, now.Add(-time.Hour), now.Add(-time.Hour),
	)
}

func TestPurchaseTickets(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").
			WillReturnResult(pgxmock.NewResult("SET", 0))
		mock.ExpectQuery(`SELECT (.+) FROM raffles WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(activeRaffleRow(now))
		mock.ExpectQuery("SELECT username, is_subscriber FROM members").
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"username", "is_subscriber"}).
				AddRow("alice", false))
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(tickets\), 0\) FROM raffle_entries WHERE raffle_id = \$1 AND user_id = \$2`).
			WithArgs(int64(1), int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))

		// Списание внутри той же транзакции
		mock.ExpectQuery(`SELECT balance FROM balances WHERE user_id = \$1 FOR UPDATE`).
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(500)))
		mock.ExpectQuery("UPDATE balances").
			WithArgs(int64(100), int64(30)).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(470)))
		mock.ExpectExec("INSERT INTO coin_transactions").
			WithArgs(int64(100), int64(-30), economy.TxTypeRafflePurchase,
				"Raffle #1: 3 ticket(s) for 30 Sweet Coins", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		mock.ExpectQuery("INSERT INTO raffle_entries").
			WithArgs(int64(1), int64(100), "alice", int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "tickets"}).AddRow(int64(42), int64(3)))
		mock.ExpectExec("INSERT INTO ticket_purchases").
			WithArgs(int64(1), int64(100), int64(3), int64(10), int64(30), int64(470)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		res, err := repo.PurchaseTickets(ctx, 100, 1, 3, now)
		require.NoError(t, err)
		assert.Equal(t, int64(42), res.EntryID)
		assert.Equal(t, int64(3), res.TicketsPurchased)
		assert.Equal(t, int64(3), res.TotalTickets)
		assert.Equal(t, int64(470), res.NewBalance)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientFundsRollsBack", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").
			WillReturnResult(pgxmock.NewResult("SET", 0))
		mock.ExpectQuery(`SELECT (.+) FROM raffles WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(activeRaffleRow(now))
		mock.ExpectQuery("SELECT username, is_subscriber FROM members").
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"username", "is_subscriber"}).
				AddRow("alice", false))
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(tickets\), 0\) FROM raffle_entries WHERE raffle_id = \$1 AND user_id = \$2`).
			WithArgs(int64(1), int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))
		mock.ExpectQuery(`SELECT balance FROM balances WHERE user_id = \$1 FOR UPDATE`).
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(10)))
		mock.ExpectRollback()

		_, err := repo.PurchaseTickets(ctx, 100, 1, 3, now)
		requireUserError(t, err, "Not enough Sweet Coins. You have 10, need 30.")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownRaffle", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").
			WillReturnResult(pgxmock.NewResult("SET", 0))
		mock.ExpectQuery(`SELECT (.+) FROM raffles WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows(raffleCols))
		mock.ExpectRollback()

		_, err := repo.PurchaseTickets(ctx, 100, 99, 1, now)
		assert.ErrorIs(t, err, common.ErrRaffleNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDrawWinnersOneShot(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	mock, repo := newTestRepo(t)

	seed := testSeed
	drawnAt := now.Add(-time.Minute)
	drawnRow := pgxmock.NewRows(raffleCols).AddRow(
		int64(1), "Test Raffle", int64(10), int64(0), int64(0),
		now.Add(-time.Hour), (*time.Time)(nil), StatusCompleted, &seed, &drawnAt,
		false, false, false, now.Add(-time.Hour), drawnAt,
	)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout").
		WillReturnResult(pgxmock.NewResult("SET", 0))
	mock.ExpectQuery(`SELECT (.+) FROM raffles WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(drawnRow)
	mock.ExpectQuery(`SELECT (.+) FROM raffle_entries WHERE raffle_id = \$1 ORDER BY id`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "raffle_id", "user_id", "username", "tickets", "source", "created_at", "updated_at",
		}).AddRow(int64(5), int64(1), int64(100), "alice", int64(3), "system", now, now))
	mock.ExpectRollback()

	// Повторный розыгрыш обязан отклониться: drawn_at уже выставлен
	_, err := repo.DrawWinners(ctx, 1, 1)
	requireUserError(t, err, "Winners have already been drawn for this raffle.")

	assert.NoError(t, mock.ExpectationsWereMet())
}
