package team

import (
	"fmt"
	"testing"

	"teambuilder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(uid string, sponsor ...string) *models.User {
	u := &models.User{UID: uid}
	if len(sponsor) > 0 {
		s := sponsor[0]
		u.ReferredBy = &s
	}
	return u
}

func requireCounts(t *testing.T, r *Result, uid string, direct, total int64) {
	t.Helper()
	counts, ok := r.Counts(uid)
	require.True(t, ok, "counts for %s should be resolved", uid)
	assert.Equal(t, direct, counts.DirectSponsorCount, "direct count of %s", uid)
	assert.Equal(t, total, counts.TotalTeamCount, "total count of %s", uid)
}

func TestCompute_TreeWithTwoBranches(t *testing.T) {
	r := BuildForest([]*models.User{
		user("A"),
		user("B", "A"),
		user("C", "A"),
		user("D", "B"),
	}).Compute()

	requireCounts(t, r, "A", 2, 3)
	requireCounts(t, r, "B", 1, 1)
	requireCounts(t, r, "C", 0, 0)
	requireCounts(t, r, "D", 0, 0)
	assert.Empty(t, r.Cycles())
	assert.Empty(t, r.Unresolved())
}

func TestCompute_SingleUser(t *testing.T) {
	r := BuildForest([]*models.User{user("A")}).Compute()

	requireCounts(t, r, "A", 0, 0)
}

func TestCompute_CycleIsIsolated(t *testing.T) {
	r := BuildForest([]*models.User{
		user("A", "B"),
		user("B", "A"),
		user("C"),
	}).Compute()

	require.Len(t, r.Cycles(), 1)
	assert.ElementsMatch(t, []string{"A", "B"}, r.Cycles()[0].Members)
	assert.ElementsMatch(t, []string{"A", "B"}, r.Unresolved())

	_, ok := r.Counts("A")
	assert.False(t, ok)
	_, ok = r.Counts("B")
	assert.False(t, ok)
	requireCounts(t, r, "C", 0, 0)
}

func TestCompute_Chain(t *testing.T) {
	r := BuildForest([]*models.User{
		user("D", "C"),
		user("C", "B"),
		user("B", "A"),
		user("A"),
	}).Compute()

	requireCounts(t, r, "A", 1, 3)
	requireCounts(t, r, "B", 1, 2)
	requireCounts(t, r, "C", 1, 1)
	requireCounts(t, r, "D", 0, 0)
}

func TestCompute_SelfReferral(t *testing.T) {
	r := BuildForest([]*models.User{
		user("A", "A"),
		user("B"),
	}).Compute()

	require.Len(t, r.Cycles(), 1)
	assert.Equal(t, []string{"A"}, r.Cycles()[0].Members)
	assert.Equal(t, []string{"A"}, r.Unresolved())
	requireCounts(t, r, "B", 0, 0)
}

func TestCompute_CycleWithHangingSubtree(t *testing.T) {
	// X -> Y -> Z -> X is a cycle; P hangs off Y and has its own child Q.
	r := BuildForest([]*models.User{
		user("X", "Z"),
		user("Y", "X"),
		user("Z", "Y"),
		user("P", "Y"),
		user("Q", "P"),
		user("R"),
		user("S", "R"),
	}).Compute()

	require.Len(t, r.Cycles(), 1)
	assert.ElementsMatch(t, []string{"X", "Y", "Z"}, r.Cycles()[0].Members)
	assert.ElementsMatch(t, []string{"X", "Y", "Z"}, r.Unresolved())

	requireCounts(t, r, "P", 1, 1)
	requireCounts(t, r, "Q", 0, 0)
	requireCounts(t, r, "R", 1, 1)
	requireCounts(t, r, "S", 0, 0)
}

func TestCompute_TwoSeparateCycles(t *testing.T) {
	r := BuildForest([]*models.User{
		user("A", "B"),
		user("B", "A"),
		user("C", "E"),
		user("D", "C"),
		user("E", "D"),
	}).Compute()

	require.Len(t, r.Cycles(), 2)
	assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E"}, r.Unresolved())
}

func TestBuildForest_OrphanCountsAsRoot(t *testing.T) {
	f := BuildForest([]*models.User{
		user("A", "ghost"),
		user("B", "A"),
	})
	r := f.Compute()

	require.Len(t, f.Orphans(), 1)
	assert.Equal(t, models.OrphanReference{UID: "A", ReferredBy: "ghost"}, f.Orphans()[0])
	requireCounts(t, r, "A", 1, 1)
	requireCounts(t, r, "B", 0, 0)
}

func TestBuildForest_DuplicatesKeepFirst(t *testing.T) {
	f := BuildForest([]*models.User{
		user("A"),
		user("B", "A"),
		user("B"),
		nil,
		{UID: ""},
	})

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"B"}, f.Duplicates())
	requireCounts(t, f.Compute(), "A", 1, 1)
}

func TestForest_ChildrenKeepSnapshotOrder(t *testing.T) {
	f := BuildForest([]*models.User{
		user("root"),
		user("c3", "root"),
		user("c1", "root"),
		user("c2", "root"),
	})

	assert.Equal(t, []string{"c3", "c1", "c2"}, f.Children("root"))
	assert.Nil(t, f.Children("missing"))
}

func TestForest_Descendants(t *testing.T) {
	f := BuildForest([]*models.User{
		user("A"),
		user("B", "A"),
		user("C", "A"),
		user("D", "B"),
		user("E"),
	})

	got, ok := f.Descendants("A")
	require.True(t, ok)
	assert.Equal(t, []string{"B", "C", "D"}, got)

	got, ok = f.Descendants("E")
	require.True(t, ok)
	assert.Empty(t, got)

	_, ok = f.Descendants("missing")
	assert.False(t, ok)
}

func TestForest_DescendantsOnCycleTerminates(t *testing.T) {
	f := BuildForest([]*models.User{
		user("A", "C"),
		user("B", "A"),
		user("C", "B"),
	})

	got, ok := f.Descendants("A")
	require.True(t, ok)
	assert.Equal(t, []string{"B", "C"}, got)
}

func TestCompute_DeepChainDoesNotRecurse(t *testing.T) {
	const depth = 200000
	users := make([]*models.User, 0, depth)
	users = append(users, user("u0"))
	for i := 1; i < depth; i++ {
		users = append(users, user(fmt.Sprintf("u%d", i), fmt.Sprintf("u%d", i-1)))
	}

	r := BuildForest(users).Compute()

	requireCounts(t, r, "u0", 1, depth-1)
	requireCounts(t, r, fmt.Sprintf("u%d", depth-1), 0, 0)
}

func TestCompute_Properties(t *testing.T) {
	// a wide, uneven forest with an orphan and a cycle mixed in
	users := []*models.User{user("root1"), user("root2"), user("orphan", "nobody")}
	for i := 0; i < 300; i++ {
		sponsor := fmt.Sprintf("n%d", i/3)
		if i < 3 {
			sponsor = "root1"
		}
		users = append(users, user(fmt.Sprintf("n%d", i), sponsor))
	}
	users = append(users, user("k1", "k3"), user("k2", "k1"), user("k3", "k2"))
	users = append(users, user("o1", "orphan"), user("r2a", "root2"))

	forest := BuildForest(users)
	r := forest.Compute()

	t.Run("leaf nodes are zero", func(t *testing.T) {
		for _, e := range r.Entries() {
			if len(forest.Children(e.UID)) == 0 {
				assert.Equal(t, models.TeamCounts{}, e.Counts, e.UID)
			}
		}
	})

	t.Run("total is direct plus child totals", func(t *testing.T) {
		for _, e := range r.Entries() {
			if !e.Resolved {
				continue
			}
			sum := e.Counts.DirectSponsorCount
			for _, c := range forest.Children(e.UID) {
				cc, ok := r.Counts(c)
				require.True(t, ok)
				sum += cc.TotalTeamCount
			}
			assert.Equal(t, sum, e.Counts.TotalTeamCount, e.UID)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		again := BuildForest(users).Compute()
		assert.Equal(t, r.Entries(), again.Entries())
	})

	t.Run("direct counts conserve valid referrals", func(t *testing.T) {
		var sum int64
		for _, e := range r.Entries() {
			sum += e.Counts.DirectSponsorCount
		}
		valid := 0
		for _, u := range users {
			if u.ReferredBy != nil && forest.Has(*u.ReferredBy) {
				valid++
			}
		}
		assert.Equal(t, int64(valid), sum)
	})

	t.Run("cycle flags exactly its members", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"k1", "k2", "k3"}, r.Unresolved())
		requireCounts(t, r, "root1", 3, 300)
		requireCounts(t, r, "orphan", 1, 1)
	})
}
