package raffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, userID, tickets int64, username string) *Entry {
	return &Entry{ID: id, UserID: userID, Username: username, Tickets: tickets}
}

func TestBuildEntryRanges(t *testing.T) {
	t.Run("ThreeParticipants", func(t *testing.T) {
		// A — 3 билета, B — 2, C — 5: пространство [0,10)
		entries := []*Entry{
			entry(1, 100, 3, "alice"),
			entry(2, 200, 2, "bob"),
			entry(3, 300, 5, "carol"),
		}

		ranges, total := BuildEntryRanges(entries)
		require.Len(t, ranges, 3)
		assert.Equal(t, int64(10), total)

		assert.Equal(t, int64(0), ranges[0].RangeStart)
		assert.Equal(t, int64(3), ranges[0].RangeEnd)
		assert.Equal(t, int64(3), ranges[1].RangeStart)
		assert.Equal(t, int64(5), ranges[1].RangeEnd)
		assert.Equal(t, int64(5), ranges[2].RangeStart)
		assert.Equal(t, int64(10), ranges[2].RangeEnd)
	})

	t.Run("Contiguity", func(t *testing.T) {
		entries := []*Entry{
			entry(1, 1, 7, "a"),
			entry(2, 2, 1, "b"),
			entry(3, 3, 11, "c"),
			entry(4, 4, 2, "d"),
		}

		ranges, total := BuildEntryRanges(entries)
		require.Len(t, ranges, 4)

		var sum int64
		for i, r := range ranges {
			assert.Equal(t, r.Tickets, r.RangeEnd-r.RangeStart)
			if i > 0 {
				assert.Equal(t, ranges[i-1].RangeEnd, r.RangeStart)
			}
			sum += r.Tickets
		}
		assert.Equal(t, int64(0), ranges[0].RangeStart)
		assert.Equal(t, total, ranges[len(ranges)-1].RangeEnd)
		assert.Equal(t, sum, total)
	})

	t.Run("Empty", func(t *testing.T) {
		ranges, total := BuildEntryRanges(nil)
		assert.Empty(t, ranges)
		assert.Equal(t, int64(0), total)
	})
}

func TestFindEntryForIndex(t *testing.T) {
	entries := []*Entry{
		entry(1, 100, 3, "alice"), // [0,3)
		entry(2, 200, 2, "bob"),   // [3,5)
		entry(3, 300, 5, "carol"), // [5,10)
	}
	ranges, total := BuildEntryRanges(entries)
	require.Equal(t, int64(10), total)

	t.Run("MiddleOfRange", func(t *testing.T) {
		got := FindEntryForIndex(ranges, 4)
		require.NotNil(t, got)
		assert.Equal(t, int64(2), got.EntryID)
	})

	t.Run("Boundaries", func(t *testing.T) {
		// Начало диапазона принадлежит владельцу, конец — следующему
		assert.Equal(t, int64(1), FindEntryForIndex(ranges, 0).EntryID)
		assert.Equal(t, int64(1), FindEntryForIndex(ranges, 2).EntryID)
		assert.Equal(t, int64(2), FindEntryForIndex(ranges, 3).EntryID)
		assert.Equal(t, int64(3), FindEntryForIndex(ranges, 5).EntryID)
		assert.Equal(t, int64(3), FindEntryForIndex(ranges, 9).EntryID)
	})

	t.Run("OutOfSpace", func(t *testing.T) {
		assert.Nil(t, FindEntryForIndex(ranges, 10))
		assert.Nil(t, FindEntryForIndex(ranges, -1))
		assert.Nil(t, FindEntryForIndex(nil, 0))
	})

	t.Run("EveryIndexFindsOwner", func(t *testing.T) {
		for i := int64(0); i < total; i++ {
			got := FindEntryForIndex(ranges, i)
			require.NotNil(t, got, "index %d", i)
			assert.True(t, got.Contains(i))
		}
	})
}
