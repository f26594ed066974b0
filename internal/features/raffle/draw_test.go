package raffle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetstream.tv/raffle-service/internal/common"
)

const testSeed = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestSelectWinners(t *testing.T) {
	entries := []*Entry{
		entry(1, 100, 3, "alice"),
		entry(2, 200, 2, "bob"),
		entry(3, 300, 5, "carol"),
	}
	ranges, total := BuildEntryRanges(entries)

	t.Run("Reproducible", func(t *testing.T) {
		first, spinsA, err := selectWinners(ranges, total, testSeed, 2)
		require.NoError(t, err)
		second, spinsB, err := selectWinners(ranges, total, testSeed, 2)
		require.NoError(t, err)

		assert.Equal(t, spinsA, spinsB)
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].EntryID, second[i].EntryID)
			assert.Equal(t, first[i].SelectedTicketIndex, second[i].SelectedTicketIndex)
			assert.Equal(t, first[i].SpinNumber, second[i].SpinNumber)
		}
	})

	t.Run("UniqueWinners", func(t *testing.T) {
		winners, _, err := selectWinners(ranges, total, testSeed, 3)
		require.NoError(t, err)
		require.Len(t, winners, 3)

		seen := make(map[int64]bool)
		for _, w := range winners {
			assert.False(t, seen[w.EntryID], "entry %d выбрана дважды", w.EntryID)
			seen[w.EntryID] = true
		}
	})

	t.Run("SpinNumbersSequential", func(t *testing.T) {
		winners, _, err := selectWinners(ranges, total, testSeed, 3)
		require.NoError(t, err)
		for i, w := range winners {
			assert.Equal(t, i+1, w.SpinNumber)
		}
	})

	t.Run("WinnerIndexInsideRange", func(t *testing.T) {
		winners, _, err := selectWinners(ranges, total, testSeed, 3)
		require.NoError(t, err)
		for _, w := range winners {
			assert.GreaterOrEqual(t, w.SelectedTicketIndex, w.TicketRangeStart)
			assert.Less(t, w.SelectedTicketIndex, w.TicketRangeEnd)
		}
	})

	t.Run("DuplicatesWhenOversubscribed", func(t *testing.T) {
		// Победителей запрошено больше, чем участников: дубли разрешены,
		// розыгрыш обязан выдать ровно столько, сколько запрошено.
		winners, _, err := selectWinners(ranges, total, testSeed, 5)
		require.NoError(t, err)
		require.Len(t, winners, 5)

		seen := make(map[int64]bool)
		for _, w := range winners {
			seen[w.EntryID] = true
		}
		assert.LessOrEqual(t, len(seen), 3)
	})

	t.Run("RejectedSpinsConsumeCounter", func(t *testing.T) {
		// Каждый спин двигает счётчик, включая отклонённые дубли:
		// spins не может быть меньше числа записанных победителей.
		winners, spins, err := selectWinners(ranges, total, testSeed, 3)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, spins, int64(len(winners)))
	})

	t.Run("SingleEntrySingleWinner", func(t *testing.T) {
		oneRanges, oneTotal := BuildEntryRanges([]*Entry{entry(7, 700, 4, "dave")})
		winners, _, err := selectWinners(oneRanges, oneTotal, testSeed, 1)
		require.NoError(t, err)
		require.Len(t, winners, 1)
		assert.Equal(t, int64(7), winners[0].EntryID)
	})

	t.Run("ZeroTotalTicketsIsDesync", func(t *testing.T) {
		_, _, err := selectWinners(nil, 0, testSeed, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDrawDesync))
	})
}

func TestReplayDraw(t *testing.T) {
	entries := []*Entry{
		entry(1, 100, 3, "alice"),
		entry(2, 200, 2, "bob"),
		entry(3, 300, 5, "carol"),
	}

	// Переигровка по тому же seed и тем же записям обязана дать тот же итог
	original, err := ReplayDraw(entries, testSeed, 2)
	require.NoError(t, err)
	replayed, err := ReplayDraw(entries, testSeed, 2)
	require.NoError(t, err)

	require.Equal(t, len(original), len(replayed))
	for i := range original {
		assert.Equal(t, original[i].EntryID, replayed[i].EntryID)
		assert.Equal(t, original[i].SelectedTicketIndex, replayed[i].SelectedTicketIndex)
		assert.Equal(t, original[i].SpinNumber, replayed[i].SpinNumber)
	}
}
