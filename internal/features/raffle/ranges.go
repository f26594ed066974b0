// Package raffle — ranges.go строит диапазоны билетов и ищет владельца индекса.
package raffle

// BuildEntryRanges раскладывает записи участников в непрерывные полуоткрытые
// диапазоны над единым индексным пространством [0, totalTickets).
//
// Порядок записей — порядок их создания. Он определяет, какие индексы кому
// принадлежат, но на честность не влияет: RNG равномерен по всему пространству.
//
// Запись с нулём билетов даёт пустой диапазон — он безвреден при построении
// и недостижим ни для какого валидного индекса при поиске.
func BuildEntryRanges(entries []*Entry) ([]EntryRange, int64) {
	ranges := make([]EntryRange, 0, len(entries))

	var cursor int64
	for _, e := range entries {
		ranges = append(ranges, EntryRange{
			EntryID:    e.ID,
			UserID:     e.UserID,
			Username:   e.Username,
			Tickets:    e.Tickets,
			RangeStart: cursor,
			RangeEnd:   cursor + e.Tickets,
			Source:     e.Source,
		})
		cursor += e.Tickets
	}

	return ranges, cursor
}

// FindEntryForIndex ищет диапазон, содержащий индекс, бинарным поиском.
// Возвращает nil, если индекс не попал ни в один диапазон — это значит,
// что вызывающий передал индекс вне [0, totalTickets). Во время розыгрыша
// такой результат фатален (диапазоны разошлись с totalTickets), и розыгрыш
// обязан прерваться, а не молча пропустить спин.
func FindEntryForIndex(ranges []EntryRange, index int64) *EntryRange {
	lo, hi := 0, len(ranges)-1

	for lo <= hi {
		mid := lo + (hi-lo)/2
		r := &ranges[mid]

		switch {
		case r.Contains(index):
			return r
		case index < r.RangeStart:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}

	return nil
}
