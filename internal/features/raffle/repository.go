// Package raffle — repository.go выполняет все операции с таблицами raffles,
// raffle_entries, raffle_winners и ticket_purchases.
//
// Дисциплина конкурентности: строка raffles блокируется FOR UPDATE и в покупке,
// и в розыгрыше. Покупки по одному розыгрышу сериализуются этой блокировкой
// (проверка капа не гонится), а розыгрыш видит согласованный снимок участников —
// покупка не может вклиниться между построением диапазонов и фиксацией.
// Строка баланса блокируется отдельно внутри economy.DeductInTx.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/db/postgres"
	"sweetstream.tv/raffle-service/internal/features/economy"
)

const raffleColumns = `id, title, ticket_cost, max_tickets_per_user, total_tickets_cap,
	       start_at, end_at, status, draw_seed, drawn_at,
	       sub_only, hidden, hidden_until_start, created_at, updated_at`

// Repository выполняет запросы и транзакции розыгрышей.
type Repository struct {
	db          postgres.DB
	economy     *economy.Repository
	lockTimeout time.Duration // SET LOCAL lock_timeout внутри транзакций
	txTimeout   time.Duration // общий бюджет одной транзакции
}

// NewRepository создаёт репозиторий розыгрышей.
func NewRepository(db postgres.DB, economyRepo *economy.Repository, lockTimeout, txTimeout time.Duration) *Repository {
	return &Repository{
		db:          db,
		economy:     economyRepo,
		lockTimeout: lockTimeout,
		txTimeout:   txTimeout,
	}
}

// scanRaffle читает одну строку raffles в структуру.
func scanRaffle(row pgx.Row) (*Raffle, error) {
	var r Raffle
	err := row.Scan(
		&r.ID, &r.Title, &r.TicketCost, &r.MaxTicketsPerUser, &r.TotalTicketsCap,
		&r.StartAt, &r.EndAt, &r.Status, &r.DrawSeed, &r.DrawnAt,
		&r.SubOnly, &r.Hidden, &r.HiddenUntilStart, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRaffleNotFound
		}
		return nil, fmt.Errorf("ошибка чтения розыгрыша: %w", err)
	}
	return &r, nil
}

// CreateRaffle создаёт розыгрыш. Начальный статус выводится из времени старта.
func (r *Repository) CreateRaffle(ctx context.Context, raf *Raffle, now time.Time) (*Raffle, error) {
	status := StatusUpcoming
	if raf.IsStarted(now) {
		status = StatusActive
	}

	query := `
		INSERT INTO raffles (title, ticket_cost, max_tickets_per_user, total_tickets_cap,
		                     start_at, end_at, status, sub_only, hidden, hidden_until_start)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + raffleColumns
	return scanRaffle(r.db.QueryRow(ctx, query,
		raf.Title, raf.TicketCost, raf.MaxTicketsPerUser, raf.TotalTicketsCap,
		raf.StartAt, raf.EndAt, status, raf.SubOnly, raf.Hidden, raf.HiddenUntilStart,
	))
}

// GetRaffle возвращает розыгрыш по ID.
func (r *Repository) GetRaffle(ctx context.Context, raffleID int64) (*Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1`
	return scanRaffle(r.db.QueryRow(ctx, query, raffleID))
}

// getRaffleForUpdate читает строку розыгрыша с блокировкой в рамках транзакции.
func (r *Repository) getRaffleForUpdate(ctx context.Context, tx pgx.Tx, raffleID int64) (*Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1 FOR UPDATE`
	return scanRaffle(tx.QueryRow(ctx, query, raffleID))
}

// ListVisible возвращает публично видимые розыгрыши.
func (r *Repository) ListVisible(ctx context.Context, now time.Time) ([]*Raffle, error) {
	query := `
		SELECT ` + raffleColumns + `
		FROM raffles
		WHERE hidden = FALSE AND (hidden_until_start = FALSE OR start_at <= $1)
		ORDER BY start_at DESC
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса розыгрышей: %w", err)
	}
	defer rows.Close()

	var out []*Raffle
	for rows.Next() {
		raf, err := scanRaffle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, raf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

const entryColumns = `id, raffle_id, user_id, username, tickets, source, created_at, updated_at`

// GetEntries возвращает записи участников в порядке создания.
// Один запрос — один согласованный снимок; этого достаточно для read-only
// таблицы диапазонов. Розыгрыш читает записи заново внутри своей транзакции.
func (r *Repository) GetEntries(ctx context.Context, raffleID int64) ([]*Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM raffle_entries WHERE raffle_id = $1 ORDER BY id`,
		raffleID,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса записей: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func getEntriesTx(ctx context.Context, tx pgx.Tx, raffleID int64) ([]*Entry, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+entryColumns+` FROM raffle_entries WHERE raffle_id = $1 ORDER BY id`,
		raffleID,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса записей: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*Entry, error) {
	var out []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.RaffleID, &e.UserID, &e.Username,
			&e.Tickets, &e.Source, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// GetWinners возвращает победителей в порядке спинов.
func (r *Repository) GetWinners(ctx context.Context, raffleID int64) ([]*Winner, error) {
	query := `
		SELECT id, raffle_id, entry_id, user_id, username, tickets,
		       selected_ticket_index, ticket_range_start, ticket_range_end, spin_number, created_at
		FROM raffle_winners
		WHERE raffle_id = $1
		ORDER BY spin_number
	`
	rows, err := r.db.Query(ctx, query, raffleID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса победителей: %w", err)
	}
	defer rows.Close()

	var out []*Winner
	for rows.Next() {
		var w Winner
		if err := rows.Scan(
			&w.ID, &w.RaffleID, &w.EntryID, &w.UserID, &w.Username, &w.Tickets,
			&w.SelectedTicketIndex, &w.TicketRangeStart, &w.TicketRangeEnd,
			&w.SpinNumber, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования победителя: %w", err)
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// PurchaseTickets атомарно проверяет право на покупку, списывает Sweet Coins
// и инкрементирует запись участника. Всё или ничего: любая ошибка
// предусловия откатывает транзакцию целиком — ни частичного списания,
// ни частичной записи.
func (r *Repository) PurchaseTickets(ctx context.Context, userID, raffleID, quantity int64, now time.Time) (*PurchaseResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := postgres.SetLockTimeout(ctx, tx, r.lockTimeout.Milliseconds()); err != nil {
		return nil, err
	}

	// Блокировка строки розыгрыша сериализует покупки в этом розыгрыше
	// и исключает гонку с транзакцией розыгрыша.
	raf, err := r.getRaffleForUpdate(ctx, tx, raffleID)
	if err != nil {
		return nil, err
	}

	st := &purchaseState{}

	var username string
	err = tx.QueryRow(ctx,
		`SELECT username, is_subscriber FROM members WHERE user_id = $1`,
		userID,
	).Scan(&username, &st.IsSubscriber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения участника: %w", err)
	}

	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(tickets), 0) FROM raffle_entries WHERE raffle_id = $1 AND user_id = $2`,
		raffleID, userID,
	).Scan(&st.ExistingTickets)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта билетов пользователя: %w", err)
	}

	if raf.TotalTicketsCap > 0 {
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(tickets), 0) FROM raffle_entries WHERE raffle_id = $1`,
			raffleID,
		).Scan(&st.SoldTickets)
		if err != nil {
			return nil, fmt.Errorf("ошибка подсчёта проданных билетов: %w", err)
		}
	}

	if err := validatePurchase(raf, st, quantity, now); err != nil {
		return nil, err
	}

	totalCost := raf.TicketCost * quantity
	description := fmt.Sprintf("Raffle #%d: %d ticket(s) for %s",
		raffleID, quantity, common.FormatCoins(totalCost, r.economy.Currency()))
	newBalance, err := r.economy.DeductInTx(ctx, tx, userID, totalCost,
		economy.TxTypeRafflePurchase, description, &raffleID)
	if err != nil {
		return nil, err
	}

	// Upsert: первая покупка создаёт строку, повторные инкрементируют tickets.
	// Дублей строк на пару (raffle, user) не бывает.
	var entryID, newTickets int64
	err = tx.QueryRow(ctx, `
		INSERT INTO raffle_entries (raffle_id, user_id, username, tickets, source)
		VALUES ($1, $2, $3, $4, 'system')
		ON CONFLICT (raffle_id, user_id) DO UPDATE
		SET tickets = raffle_entries.tickets + EXCLUDED.tickets,
		    username = EXCLUDED.username,
		    updated_at = NOW()
		RETURNING id, tickets
	`, raffleID, userID, username, quantity).Scan(&entryID, &newTickets)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи участника: %w", err)
	}

	// Неизменяемая запись о покупке для истории пользователя
	_, err = tx.Exec(ctx, `
		INSERT INTO ticket_purchases (raffle_id, user_id, quantity, ticket_cost, total_cost, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, raffleID, userID, quantity, raf.TicketCost, totalCost, newBalance)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи истории покупки: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return &PurchaseResult{
		EntryID:          entryID,
		TicketsPurchased: quantity,
		TotalTickets:     newTickets,
		NewBalance:       newBalance,
	}, nil
}

// GrantCustomEntry выдаёт билеты вручную, без списания Sweet Coins (админ).
func (r *Repository) GrantCustomEntry(ctx context.Context, raffleID, userID, tickets int64) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := postgres.SetLockTimeout(ctx, tx, r.lockTimeout.Milliseconds()); err != nil {
		return nil, err
	}

	raf, err := r.getRaffleForUpdate(ctx, tx, raffleID)
	if err != nil {
		return nil, err
	}
	if raf.IsDrawn() {
		return nil, common.NewUserError("This raffle has already been completed.")
	}

	var username string
	err = tx.QueryRow(ctx, `SELECT username FROM members WHERE user_id = $1`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения участника: %w", err)
	}

	if raf.TotalTicketsCap > 0 {
		var sold int64
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(tickets), 0) FROM raffle_entries WHERE raffle_id = $1`,
			raffleID,
		).Scan(&sold)
		if err != nil {
			return nil, fmt.Errorf("ошибка подсчёта проданных билетов: %w", err)
		}
		if sold+tickets > raf.TotalTicketsCap {
			return nil, common.NewUserError(fmt.Sprintf(
				"Only %d tickets left in this raffle.", raf.TotalTicketsCap-sold,
			))
		}
	}

	var e Entry
	err = tx.QueryRow(ctx, `
		INSERT INTO raffle_entries (raffle_id, user_id, username, tickets, source)
		VALUES ($1, $2, $3, $4, 'custom')
		ON CONFLICT (raffle_id, user_id) DO UPDATE
		SET tickets = raffle_entries.tickets + EXCLUDED.tickets,
		    updated_at = NOW()
		RETURNING `+entryColumns+`
	`, raffleID, userID, username, tickets).Scan(
		&e.ID, &e.RaffleID, &e.UserID, &e.Username,
		&e.Tickets, &e.Source, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи участника: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return &e, nil
}

// DrawWinners атомарно выбирает победителей. Блокировка строки raffles держится
// от чтения участников до фиксации: покупка не может приземлиться после
// построения диапазонов, но до коммита розыгрыша.
func (r *Repository) DrawWinners(ctx context.Context, raffleID int64, numberOfWinners int) (*DrawResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := postgres.SetLockTimeout(ctx, tx, r.lockTimeout.Milliseconds()); err != nil {
		return nil, err
	}

	raf, err := r.getRaffleForUpdate(ctx, tx, raffleID)
	if err != nil {
		return nil, err
	}

	entries, err := getEntriesTx(ctx, tx, raffleID)
	if err != nil {
		return nil, err
	}

	if err := validateDraw(raf, len(entries)); err != nil {
		return nil, err
	}

	ranges, totalTickets := BuildEntryRanges(entries)

	// Seed генерируется только здесь, внутри транзакции розыгрыша:
	// до розыгрыша он непредсказуем, после фиксации — публичен.
	seed, err := NewDrawSeed()
	if err != nil {
		return nil, err
	}

	winners, spins, err := selectWinners(ranges, totalTickets, seed, numberOfWinners)
	if err != nil {
		return nil, err
	}

	for _, w := range winners {
		w.RaffleID = raffleID
		_, err = tx.Exec(ctx, `
			INSERT INTO raffle_winners (raffle_id, entry_id, user_id, username, tickets,
			                            selected_ticket_index, ticket_range_start, ticket_range_end, spin_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, w.RaffleID, w.EntryID, w.UserID, w.Username, w.Tickets,
			w.SelectedTicketIndex, w.TicketRangeStart, w.TicketRangeEnd, w.SpinNumber)
		if err != nil {
			return nil, fmt.Errorf("ошибка записи победителя: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE raffles
		SET status = 'completed', draw_seed = $2, drawn_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, raffleID, seed)
	if err != nil {
		return nil, fmt.Errorf("ошибка завершения розыгрыша: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return &DrawResult{
		Winners:      winners,
		DrawSeed:     seed,
		TotalTickets: totalTickets,
		Spins:        spins,
	}, nil
}

// ResetDraw сбрасывает результаты розыгрыша: удаляет победителей и очищает
// seed/drawn_at. Единственный путь к повторному розыгрышу.
func (r *Repository) ResetDraw(ctx context.Context, raffleID int64, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := postgres.SetLockTimeout(ctx, tx, r.lockTimeout.Milliseconds()); err != nil {
		return err
	}

	raf, err := r.getRaffleForUpdate(ctx, tx, raffleID)
	if err != nil {
		return err
	}
	if !raf.IsDrawn() {
		return common.NewUserError("Winners have not been drawn for this raffle.")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM raffle_winners WHERE raffle_id = $1`, raffleID); err != nil {
		return fmt.Errorf("ошибка удаления победителей: %w", err)
	}

	status := StatusUpcoming
	if raf.IsStarted(now) {
		status = StatusActive
	}
	_, err = tx.Exec(ctx, `
		UPDATE raffles
		SET status = $2, draw_seed = NULL, drawn_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, raffleID, status)
	if err != nil {
		return fmt.Errorf("ошибка сброса розыгрыша: %w", err)
	}

	return tx.Commit(ctx)
}

// ActivateDue переводит upcoming-розыгрыши с наступившим стартом в active.
// Вызывается крон-задачей; транзакция покупки в любом случае перепроверяет
// времена сама, так что это обновление — для витрины и оверлея.
func (r *Repository) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE raffles
		SET status = 'active', updated_at = NOW()
		WHERE status = 'upcoming' AND start_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка активации розыгрышей: %w", err)
	}
	return tag.RowsAffected(), nil
}
