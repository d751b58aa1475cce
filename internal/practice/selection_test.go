package practice

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestBuildFullOrder(t *testing.T) {
	for total := 0; total <= 25; total++ {
		order := BuildFullOrder(total)
		require.Len(t, order, total)
		for i, idx := range order {
			assert.Equal(t, i, idx)
		}
	}

	assert.Empty(t, BuildFullOrder(-3))
}

func TestBuildRandomSubset(t *testing.T) {
	rng := seeded()

	for total := 0; total <= 30; total++ {
		for count := 0; count <= total; count++ {
			subset := BuildRandomSubset(count, total, rng)
			require.Len(t, subset, count, "count=%d total=%d", count, total)

			seen := make(map[int]bool, count)
			for _, idx := range subset {
				assert.GreaterOrEqual(t, idx, 0)
				assert.Less(t, idx, total)
				assert.False(t, seen[idx], "duplicate %d", idx)
				seen[idx] = true
			}
		}
	}
}

func TestBuildRandomSubset_Bounds(t *testing.T) {
	rng := seeded()

	assert.Len(t, BuildRandomSubset(50, 10, rng), 10)
	assert.Empty(t, BuildRandomSubset(0, 10, rng))
	assert.Empty(t, BuildRandomSubset(-1, 10, rng))
	assert.NotNil(t, BuildRandomSubset(3, 0, rng))
}

func TestBuildSequentialRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		total      int
		want       []int
	}{
		{"inside", 2, 5, 10, []int{2, 3, 4}},
		{"clipped end", 8, 15, 10, []int{8, 9}},
		{"clipped start", -2, 2, 10, []int{0, 1}},
		{"empty", 3, 3, 10, []int{}},
		{"beyond catalogue", 12, 15, 10, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSequentialRange(tt.start, tt.end, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSequentialRange_StartAfterEnd(t *testing.T) {
	got, err := BuildSequentialRange(5, 3, 10)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Nil(t, got)
}

func TestShuffle_KeepsElements(t *testing.T) {
	seq := BuildFullOrder(20)
	Shuffle(seq, seeded())

	assert.NotEqual(t, BuildFullOrder(20), seq, "seeded shuffle must move something")

	sorted := slices.Clone(seq)
	slices.Sort(sorted)
	assert.Equal(t, BuildFullOrder(20), sorted)
}

// Every index must be equally likely in every slot of a draw.
func TestBuildRandomSubset_Uniform(t *testing.T) {
	const (
		total = 6
		count = 4
		draws = 60000
	)
	rng := seeded()

	var hits [count][total]int
	for d := 0; d < draws; d++ {
		for slot, idx := range BuildRandomSubset(count, total, rng) {
			hits[slot][idx]++
		}
	}

	want := draws / total
	tolerance := want / 20
	for slot := range hits {
		for idx, n := range hits[slot] {
			assert.InDelta(t, want, n, float64(tolerance), "slot %d index %d", slot, idx)
		}
	}
}

func TestApplyFilter(t *testing.T) {
	// 0: correct, 1: wrong, 2: unanswered, 3: wrong
	judge := func(idx int) (bool, bool) {
		switch idx {
		case 0:
			return true, true
		case 1, 3:
			return true, false
		}
		return false, false
	}
	base := []int{0, 1, 2, 3}

	all, err := ApplyFilter(base, FilterAll, judge)
	require.NoError(t, err)
	assert.Equal(t, base, all)

	incorrect, err := ApplyFilter(base, FilterIncorrect, judge)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, incorrect)

	unanswered, err := ApplyFilter(base, FilterUnanswered, judge)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, unanswered)

	_, err = ApplyFilter([]int{0}, FilterIncorrect, judge)
	assert.ErrorIs(t, err, ErrNoMatchingQuestions)

	_, err = ApplyFilter(base, FilterMode("bookmarked"), judge)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestApplyFilter_DoesNotAliasBase(t *testing.T) {
	base := []int{0, 1, 2}
	out, err := ApplyFilter(base, FilterAll, func(int) (bool, bool) { return false, false })
	require.NoError(t, err)

	out[0] = 99
	assert.Equal(t, 0, base[0])
}
