// Package raffle реализует розыгрыши: продажу билетов, построение диапазонов
// и доказуемо честный выбор победителей.
// models.go описывает структуры таблиц raffles, raffle_entries, raffle_winners
// и ticket_purchases.
package raffle

import "time"

// Статусы розыгрыша. Переходы upcoming → active управляются временем
// (крон-задача + перепроверка в транзакции покупки), completed выставляет
// только зафиксированный розыгрыш победителей.
const (
	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Источники записей участников
const (
	SourceSystem = "system" // билеты куплены за Sweet Coins
	SourceCustom = "custom" // билеты выданы админом вручную
)

// Raffle — один розыгрыш.
type Raffle struct {
	ID                int64      `db:"id" json:"id"`
	Title             string     `db:"title" json:"title"`
	TicketCost        int64      `db:"ticket_cost" json:"ticketCost"`
	MaxTicketsPerUser int64      `db:"max_tickets_per_user" json:"maxTicketsPerUser"` // 0 — без лимита
	TotalTicketsCap   int64      `db:"total_tickets_cap" json:"totalTicketsCap"`      // 0 — без капа
	StartAt           time.Time  `db:"start_at" json:"startAt"`
	EndAt             *time.Time `db:"end_at" json:"endAt,omitempty"` // NULL — продажи не ограничены по времени
	Status            string     `db:"status" json:"status"`
	DrawSeed          *string    `db:"draw_seed" json:"drawSeed,omitempty"` // раскрывается только после розыгрыша
	DrawnAt           *time.Time `db:"drawn_at" json:"drawnAt,omitempty"`
	SubOnly           bool       `db:"sub_only" json:"subOnly"`
	Hidden            bool       `db:"hidden" json:"hidden"`
	HiddenUntilStart  bool       `db:"hidden_until_start" json:"hiddenUntilStart"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"-"`
}

// IsStarted сообщает, наступило ли время старта.
func (r *Raffle) IsStarted(now time.Time) bool {
	return !now.Before(r.StartAt)
}

// IsEnded сообщает, закончились ли продажи.
func (r *Raffle) IsEnded(now time.Time) bool {
	return r.EndAt != nil && now.After(*r.EndAt)
}

// IsDrawn сообщает, были ли уже выбраны победители (розыгрыш одноразовый).
func (r *Raffle) IsDrawn() bool {
	return r.DrawnAt != nil || r.Status == StatusCompleted
}

// VisibleAt сообщает, виден ли розыгрыш публично в момент now.
func (r *Raffle) VisibleAt(now time.Time) bool {
	if r.Hidden {
		return false
	}
	if r.HiddenUntilStart && !r.IsStarted(now) {
		return false
	}
	return true
}

// Entry — агрегированная запись участника в одном розыгрыше.
// Одна строка на пару (raffle, user); повторные покупки инкрементируют
// tickets (upsert), дубликатов строк не бывает.
type Entry struct {
	ID        int64     `db:"id" json:"entryId"`
	RaffleID  int64     `db:"raffle_id" json:"-"`
	UserID    int64     `db:"user_id" json:"userId"`
	Username  string    `db:"username" json:"username"`
	Tickets   int64     `db:"tickets" json:"tickets"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// EntryRange — производный диапазон билетов участника в плоском индексном
// пространстве [0, totalTickets). Существует только в памяти на время одного
// построения/поиска; в БД сохраняются лишь победители и seed.
//
// Инварианты: диапазоны отсортированы, смежны и не пересекаются;
// RangeEnd[i] == RangeStart[i+1]; RangeEnd последнего == totalTickets;
// Tickets == RangeEnd - RangeStart.
type EntryRange struct {
	EntryID    int64  `json:"entryId"`
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	Tickets    int64  `json:"tickets"`
	RangeStart int64  `json:"rangeStart"` // включительно
	RangeEnd   int64  `json:"rangeEnd"`   // исключительно
	Source     string `json:"source"`
}

// Contains сообщает, попадает ли индекс в диапазон [RangeStart, RangeEnd).
func (er *EntryRange) Contains(index int64) bool {
	return index >= er.RangeStart && index < er.RangeEnd
}

// Winner — один выбранный победитель. Запись неизменяема после фиксации
// транзакции розыгрыша.
type Winner struct {
	ID                  int64     `db:"id" json:"-"`
	RaffleID            int64     `db:"raffle_id" json:"-"`
	EntryID             int64     `db:"entry_id" json:"entryId"`
	UserID              int64     `db:"user_id" json:"userId"`
	Username            string    `db:"username" json:"username"`
	Tickets             int64     `db:"tickets" json:"tickets"`
	SelectedTicketIndex int64     `db:"selected_ticket_index" json:"selectedTicketIndex"`
	TicketRangeStart    int64     `db:"ticket_range_start" json:"ticketRangeStart"`
	TicketRangeEnd      int64     `db:"ticket_range_end" json:"ticketRangeEnd"`
	SpinNumber          int       `db:"spin_number" json:"spinNumber"`
	CreatedAt           time.Time `db:"created_at" json:"-"`
}

// PurchaseResult — итог успешной покупки билетов.
type PurchaseResult struct {
	EntryID          int64 `json:"entryId"`
	TicketsPurchased int64 `json:"ticketsPurchased"`
	TotalTickets     int64 `json:"totalTickets"` // суммарно билетов у пользователя после покупки
	NewBalance       int64 `json:"newBalance"`
}

// DrawResult — итог розыгрыша: победители и данные для воспроизведения.
type DrawResult struct {
	Winners      []*Winner `json:"winners"`
	DrawSeed     string    `json:"drawSeed"`
	TotalTickets int64     `json:"totalTickets"`
	Spins        int64     `json:"-"` // потреблено значений RNG, включая отклонённые дубли
}

// Snapshot — текущее состояние таблицы диапазонов (для оверлея и API).
type Snapshot struct {
	RaffleID     int64        `json:"raffleId"`
	TotalTickets int64        `json:"totalTickets"`
	Entries      []EntryRange `json:"entries"`
}
