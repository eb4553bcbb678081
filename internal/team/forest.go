package team

import (
	"teambuilder/internal/models"
)

type nodeState uint8

const (
	stateUnvisited nodeState = iota
	stateInProgress
	stateDone
	stateCyclic
	stateUnresolved
)

// Forest is an arena index over a snapshot of users. Nodes are addressed by
// their position in the snapshot; children keep snapshot order.
type Forest struct {
	uids       []string
	index      map[string]int
	children   [][]int
	orphans    []models.OrphanReference
	duplicates []string
}

// BuildForest indexes users by uid and links every user to its sponsor.
// A sponsor uid missing from the snapshot makes the user a root and is
// recorded as an orphan reference. Repeated uids keep the first record.
func BuildForest(users []*models.User) *Forest {
	f := &Forest{
		uids:  make([]string, 0, len(users)),
		index: make(map[string]int, len(users)),
	}

	sponsors := make([]string, 0, len(users))
	for _, u := range users {
		if u == nil || u.UID == "" {
			continue
		}
		if _, exists := f.index[u.UID]; exists {
			f.duplicates = append(f.duplicates, u.UID)
			continue
		}
		f.index[u.UID] = len(f.uids)
		f.uids = append(f.uids, u.UID)
		sponsors = append(sponsors, u.Sponsor())
	}

	f.children = make([][]int, len(f.uids))
	for i, sponsor := range sponsors {
		if sponsor == "" {
			continue
		}
		p, ok := f.index[sponsor]
		if !ok {
			f.orphans = append(f.orphans, models.OrphanReference{UID: f.uids[i], ReferredBy: sponsor})
			continue
		}
		f.children[p] = append(f.children[p], i)
	}

	return f
}

func (f *Forest) Len() int {
	return len(f.uids)
}

func (f *Forest) Has(uid string) bool {
	_, ok := f.index[uid]
	return ok
}

func (f *Forest) Orphans() []models.OrphanReference {
	return f.orphans
}

func (f *Forest) Duplicates() []string {
	return f.duplicates
}

// Children returns the direct referrals of uid in snapshot order.
func (f *Forest) Children(uid string) []string {
	i, ok := f.index[uid]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(f.children[i]))
	for _, c := range f.children[i] {
		out = append(out, f.uids[c])
	}
	return out
}

// Descendants returns the downline of uid breadth-first. The user itself is
// never part of its own downline, even when it sits on a cycle.
func (f *Forest) Descendants(uid string) ([]string, bool) {
	root, ok := f.index[uid]
	if !ok {
		return nil, false
	}

	seen := map[int]struct{}{root: {}}
	queue := append([]int(nil), f.children[root]...)
	var out []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, f.uids[n])
		queue = append(queue, f.children[n]...)
	}
	return out, true
}

// Entry is the computed outcome for one user.
type Entry struct {
	UID      string
	Counts   models.TeamCounts
	Resolved bool
}

type Result struct {
	forest *Forest
	state  []nodeState
	total  []int64
	cycles []models.ReferralCycle
}

// Compute runs one memoized postorder pass over the forest. It uses an
// explicit stack, so depth is bounded by memory rather than goroutine stack,
// and an in-progress marker per node to detect referral cycles.
func (f *Forest) Compute() *Result {
	n := len(f.uids)
	r := &Result{
		forest: f,
		state:  make([]nodeState, n),
		total:  make([]int64, n),
	}

	type frame struct {
		node int
		next int
	}
	depth := make([]int, n)
	stack := make([]frame, 0, 64)

	for start := 0; start < n; start++ {
		if r.state[start] != stateUnvisited {
			continue
		}
		r.state[start] = stateInProgress
		depth[start] = 0
		stack = append(stack[:0], frame{node: start})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := f.children[top.node]

			if top.next < len(kids) {
				child := kids[top.next]
				top.next++

				switch r.state[child] {
				case stateUnvisited:
					r.state[child] = stateInProgress
					depth[child] = len(stack)
					stack = append(stack, frame{node: child})
				case stateInProgress:
					// child is an ancestor on the current path
					members := make([]string, 0, len(stack)-depth[child])
					for _, fr := range stack[depth[child]:] {
						r.state[fr.node] = stateCyclic
						members = append(members, f.uids[fr.node])
					}
					r.cycles = append(r.cycles, models.ReferralCycle{Members: members})
				}
				continue
			}

			node := top.node
			stack = stack[:len(stack)-1]
			if r.state[node] == stateCyclic {
				continue
			}

			var sum int64
			resolved := true
			for _, c := range kids {
				if r.state[c] != stateDone {
					resolved = false
					break
				}
				sum += 1 + r.total[c]
			}
			if !resolved {
				r.state[node] = stateUnresolved
				continue
			}
			r.total[node] = sum
			r.state[node] = stateDone
		}
	}

	return r
}

func (r *Result) Len() int {
	return len(r.forest.uids)
}

func (r *Result) Forest() *Forest {
	return r.forest
}

func (r *Result) Cycles() []models.ReferralCycle {
	return r.cycles
}

// Counts returns the counts for uid. ok is false for unknown uids and for
// users whose total could not be resolved because of a cycle.
func (r *Result) Counts(uid string) (models.TeamCounts, bool) {
	i, known := r.forest.index[uid]
	if !known || r.state[i] != stateDone {
		return models.TeamCounts{}, false
	}
	return r.countsAt(i), true
}

func (r *Result) countsAt(i int) models.TeamCounts {
	return models.TeamCounts{
		DirectSponsorCount: int64(len(r.forest.children[i])),
		TotalTeamCount:     r.total[i],
	}
}

// Entries lists every user in snapshot order. Unresolved entries carry the
// direct count only.
func (r *Result) Entries() []Entry {
	entries := make([]Entry, 0, len(r.forest.uids))
	for i, uid := range r.forest.uids {
		e := Entry{UID: uid, Resolved: r.state[i] == stateDone}
		if e.Resolved {
			e.Counts = r.countsAt(i)
		} else {
			e.Counts = models.TeamCounts{DirectSponsorCount: int64(len(r.forest.children[i]))}
		}
		entries = append(entries, e)
	}
	return entries
}

func (r *Result) Unresolved() []string {
	var out []string
	for i, uid := range r.forest.uids {
		if r.state[i] != stateDone {
			out = append(out, uid)
		}
	}
	return out
}
