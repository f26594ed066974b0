// Package raffle — draw.go содержит чистый цикл выбора победителей.
// Вся работа с БД остаётся в repository.go; эта функция берёт уже построенные
// диапазоны, поэтому её можно проверять и переигрывать без базы.
package raffle

import (
	"fmt"

	"sweetstream.tv/raffle-service/internal/common"
)

// минимальный потолок попыток, чтобы крошечные тиражи не упирались в кап
const minDrawAttempts = 100

// selectWinners выбирает numberOfWinners победителей по диапазонам.
//
// Счётчик RNG увеличивается на КАЖДУЮ попытку, включая отклонённые дубли:
// полный след (seed, counter) — включая отклонения — нужен, чтобы переиграть
// точный набор победителей. Отклонённый спин не занимает место в списке.
//
// Дубли разрешаются только когда победителей запрошено больше, чем участников
// (уникальных выбрать невозможно). Цикл отклонения дублей математически
// сходится, но не имеет доказанной верхней границы, поэтому попытки ограничены
// totalTickets*10: превышение — внутренняя ошибка, а не вечный цикл.
func selectWinners(ranges []EntryRange, totalTickets int64, seed string, numberOfWinners int) ([]*Winner, int64, error) {
	if totalTickets <= 0 {
		return nil, 0, fmt.Errorf("%w: totalTickets=%d", common.ErrDrawDesync, totalTickets)
	}

	allowDuplicateWinners := numberOfWinners > len(ranges)

	maxAttempts := totalTickets * 10
	if maxAttempts < minDrawAttempts {
		maxAttempts = minDrawAttempts
	}

	winners := make([]*Winner, 0, numberOfWinners)
	selected := make(map[int64]bool, numberOfWinners) // по entryID

	var counter int64
	for len(winners) < numberOfWinners {
		if counter >= maxAttempts {
			return nil, counter, fmt.Errorf(
				"выбор победителей не завершился за %d попыток (winners=%d/%d)",
				maxAttempts, len(winners), numberOfWinners,
			)
		}

		index, err := DeterministicRandomInt(seed, counter, totalTickets)
		if err != nil {
			return nil, counter, err
		}

		entry := FindEntryForIndex(ranges, index)
		if entry == nil {
			// Диапазоны и totalTickets разошлись — фатально, прерываем весь розыгрыш
			return nil, counter, fmt.Errorf("%w: index=%d, totalTickets=%d", common.ErrDrawDesync, index, totalTickets)
		}

		if !allowDuplicateWinners && selected[entry.EntryID] {
			// Дубль: спин не записываем, но counter потреблён
			counter++
			continue
		}

		winners = append(winners, &Winner{
			EntryID:             entry.EntryID,
			UserID:              entry.UserID,
			Username:            entry.Username,
			Tickets:             entry.Tickets,
			SelectedTicketIndex: index,
			TicketRangeStart:    entry.RangeStart,
			TicketRangeEnd:      entry.RangeEnd,
			SpinNumber:          len(winners) + 1,
		})
		selected[entry.EntryID] = true
		counter++
	}

	return winners, counter, nil
}

// ReplayDraw переигрывает розыгрыш по сохранённому seed. Используется
// эндпоинтом верификации: результат обязан побайтно совпасть с таблицей
// raffle_winners.
func ReplayDraw(entries []*Entry, seed string, numberOfWinners int) ([]*Winner, error) {
	ranges, totalTickets := BuildEntryRanges(entries)
	winners, _, err := selectWinners(ranges, totalTickets, seed, numberOfWinners)
	return winners, err
}
