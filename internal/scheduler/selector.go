package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

// SolverStatus reports how a schedule was selected.
type SolverStatus string

const (
	// StatusOptimal means the exact search proved optimality within budget.
	StatusOptimal SolverStatus = "optimal"
	// StatusDegraded means the exact search hit its time budget or no
	// selection could meet a coverage floor; the best solution found is used.
	StatusDegraded SolverStatus = "degraded"
	// StatusGreedy means the greedy heuristic selected the schedule.
	StatusGreedy SolverStatus = "greedy"
)

// DefaultSolveBudget bounds one exact solve.
const DefaultSolveBudget = 60 * time.Second

// Selection is the outcome of a selection pass: indices into the candidate
// slice plus a status that is informational, never an error.
type Selection struct {
	Indices []int
	Status  SolverStatus
	Note    string
}

// Selector picks a conflict-free, constraint-satisfying subset of candidates
// maximizing total expected revenue.
type Selector interface {
	Select(candidates []domain.Candidate, rooms []domain.Room, cons domain.Constraints) Selection
}

type movieDayKey struct {
	MovieID int
	Day     string
}

// selectionModel is the shared constraint formulation both selectors work
// from: per-candidate quantized time blocks, pairwise room-day conflicts,
// and the movie/day groupings the caps apply to.
type selectionModel struct {
	startBlock []int
	endBlock   []int
	day        []string
	movieDay   []movieDayKey

	conflicts     [][]int
	conflictPairs int

	dayGroups map[string][]int
}

// timeBlocks quantizes a candidate to half-hour blocks covering its runtime
// plus cleanup break. Length is rounded up so the quantized span is never
// more permissive than the continuous interval check used during filtering.
func timeBlocks(c domain.Candidate, breakMinutes int) (start, end int) {
	runtime := c.Movie.Runtime
	if runtime <= 0 {
		runtime = defaultRuntime
	}

	start = c.StartsAt.Hour()*2 + c.StartsAt.Minute()/30
	end = start + (runtime+breakMinutes+29)/30

	return start, end
}

func buildSelectionModel(candidates []domain.Candidate, cons domain.Constraints) *selectionModel {
	n := len(candidates)
	m := &selectionModel{
		startBlock: make([]int, n),
		endBlock:   make([]int, n),
		day:        make([]string, n),
		movieDay:   make([]movieDayKey, n),
		conflicts:  make([][]int, n),
		dayGroups:  map[string][]int{},
	}

	roomDayGroups := map[roomDay][]int{}

	for i, c := range candidates {
		day := c.DayKey()
		m.startBlock[i], m.endBlock[i] = timeBlocks(c, cons.MinBreakMinutes)
		m.day[i] = day
		m.movieDay[i] = movieDayKey{c.Movie.ID, day}

		m.dayGroups[day] = append(m.dayGroups[day], i)
		key := roomDay{c.Room.ID, day}
		roomDayGroups[key] = append(roomDayGroups[key], i)
	}

	for _, group := range roomDayGroups {
		for a := 0; a < len(group); a++ {
			for b := a + 1; b < len(group); b++ {
				i, j := group[a], group[b]
				if m.startBlock[i] < m.endBlock[j] && m.startBlock[j] < m.endBlock[i] {
					m.conflicts[i] = append(m.conflicts[i], j)
					m.conflicts[j] = append(m.conflicts[j], i)
					m.conflictPairs++
				}
			}
		}
	}

	return m
}

// greedySolve scans candidates in descending expected revenue, accepting
// each one that keeps the schedule feasible. enforceDayCap additionally
// applies the per-day total cap, which the exact search needs from its warm
// start.
func greedySolve(candidates []domain.Candidate, model *selectionModel, cons domain.Constraints, roomCount int, enforceDayCap bool) []int {
	order := revenueOrder(candidates)

	selected := make([]bool, len(candidates))
	movieDayCount := map[movieDayKey]int{}
	dayCount := map[string]int{}
	maxPerDay := cons.MaxShowsPerDay * roomCount

	var picked []int

	for _, i := range order {
		if movieDayCount[model.movieDay[i]] >= cons.MaxShowsPerMoviePerDay {
			continue
		}
		if enforceDayCap && dayCount[model.day[i]] >= maxPerDay {
			continue
		}

		conflicted := false
		for _, j := range model.conflicts[i] {
			if selected[j] {
				conflicted = true
				break
			}
		}
		if conflicted {
			continue
		}

		selected[i] = true
		movieDayCount[model.movieDay[i]]++
		dayCount[model.day[i]]++
		picked = append(picked, i)
	}

	sort.Ints(picked)
	return picked
}

// GreedySelector is the heuristic fallback for environments without the
// exact search. It is not guaranteed optimal: a high-revenue candidate can
// block two disjoint cheaper candidates worth more in total.
type GreedySelector struct{}

func (s *GreedySelector) Select(candidates []domain.Candidate, rooms []domain.Room, cons domain.Constraints) Selection {
	model := buildSelectionModel(candidates, cons)

	return Selection{
		Indices: greedySolve(candidates, model, cons, len(rooms), false),
		Status:  StatusGreedy,
	}
}

// ExactSelector solves the selection problem exactly: one binary decision per
// candidate, total expected revenue as the objective, pairwise room-day
// conflict exclusions plus the movie/day and day caps as constraints. Days
// with at least MinShowsPerDay candidates additionally carry the coverage
// floor as a hard constraint. It runs a depth-first branch-and-bound over
// candidates in descending revenue order, warm-started from the greedy
// solution, and stops at the time budget with the best feasible solution
// found so far.
type ExactSelector struct {
	TimeBudget time.Duration

	now func() time.Time
}

func NewExactSelector(budget time.Duration) *ExactSelector {
	if budget <= 0 {
		budget = DefaultSolveBudget
	}
	return &ExactSelector{TimeBudget: budget, now: time.Now}
}

func (s *ExactSelector) Select(candidates []domain.Candidate, rooms []domain.Room, cons domain.Constraints) Selection {
	n := len(candidates)
	if n == 0 {
		return Selection{Status: StatusOptimal}
	}

	model := buildSelectionModel(candidates, cons)

	// Days with enough candidates to reach the floor get it as a hard
	// constraint; days with fewer are exempt.
	floored := map[string]bool{}
	remaining := map[string]int{}
	if cons.MinShowsPerDay > 0 {
		for day, group := range model.dayGroups {
			if len(group) >= cons.MinShowsPerDay {
				floored[day] = true
				remaining[day] = len(group)
			}
		}
	}

	search := &bbSearch{
		candidates: candidates,
		model:      model,
		cons:       cons,
		maxPerDay:  cons.MaxShowsPerDay * len(rooms),
		order:      revenueOrder(candidates),
		selected:   make([]bool, n),
		movieDay:   map[movieDayKey]int{},
		dayCount:   map[string]int{},
		floored:    floored,
		remaining:  remaining,
		shortDays:  len(floored),
		deadline:   s.now().Add(s.TimeBudget),
		clock:      s.now,
	}

	// Admissible bound: the revenue of every still-undecided candidate.
	search.suffix = make([]float64, n+1)
	for pos := n - 1; pos >= 0; pos-- {
		search.suffix[pos] = search.suffix[pos+1] + candidates[search.order[pos]].ExpectedRevenue
	}

	// Warm start from the day-capped greedy solution so early subtrees
	// prune against a realistic incumbent. The greedy pass ignores the
	// coverage floor, so it only seeds the incumbent when it happens to
	// satisfy it.
	incumbent := greedySolve(candidates, model, cons, len(rooms), true)
	warm := make([]bool, n)
	var warmRevenue float64
	for _, i := range incumbent {
		warm[i] = true
		warmRevenue += candidates[i].ExpectedRevenue
	}

	search.best = make([]bool, n)
	if _, short := uncoveredDay(model, warm, cons.MinShowsPerDay); !short {
		copy(search.best, warm)
		search.bestRevenue = warmRevenue
		search.hasIncumbent = true
	}

	search.walk(0, 0)

	if !search.hasIncumbent {
		// No selection satisfies every floored day, or the budget ran out
		// before one was found. Keep the greedy schedule, like the original
		// fallback when the exact formulation is infeasible.
		day, _ := uncoveredDay(model, warm, cons.MinShowsPerDay)
		note := fmt.Sprintf("coverage floor unmet for %s", day)
		if search.timedOut {
			note = "time budget reached before a coverage-compliant schedule was found; using greedy fallback"
		}
		return Selection{Indices: incumbent, Status: StatusDegraded, Note: note}
	}

	var picked []int
	for i, ok := range search.best {
		if ok {
			picked = append(picked, i)
		}
	}

	status := StatusOptimal
	note := ""
	if search.timedOut {
		status = StatusDegraded
		note = "time budget reached before optimality was proven; using best solution found"
	}

	return Selection{Indices: picked, Status: status, Note: note}
}

type bbSearch struct {
	candidates []domain.Candidate
	model      *selectionModel
	cons       domain.Constraints
	maxPerDay  int

	order    []int
	suffix   []float64
	selected []bool
	movieDay map[movieDayKey]int
	dayCount map[string]int

	// Coverage-floor state: floored days, how many of their candidates are
	// still undecided, and how many floored days are currently below the
	// floor. A selection is feasible only when shortDays is zero.
	floored   map[string]bool
	remaining map[string]int
	shortDays int

	best         []bool
	bestRevenue  float64
	hasIncumbent bool

	deadline time.Time
	clock    func() time.Time
	nodes    int
	timedOut bool
}

// walk explores include-then-exclude for the candidate at position pos.
// A partial selection is a complete feasible schedule whenever every floored
// day is covered, so the incumbent updates at improving covered nodes, not
// just leaves.
func (s *bbSearch) walk(pos int, revenue float64) {
	if s.timedOut {
		return
	}

	s.nodes++
	if s.nodes%4096 == 0 && s.clock().After(s.deadline) {
		s.timedOut = true
		return
	}

	if s.shortDays == 0 && (!s.hasIncumbent || revenue > s.bestRevenue) {
		s.bestRevenue = revenue
		copy(s.best, s.selected)
		s.hasIncumbent = true
	}

	if pos == len(s.order) {
		return
	}

	// Nothing ahead can beat the incumbent.
	if s.hasIncumbent && revenue+s.suffix[pos] <= s.bestRevenue {
		return
	}

	i := s.order[pos]
	day := s.model.day[i]
	if s.floored[day] {
		s.remaining[day]--
	}

	if s.feasible(i) {
		s.selected[i] = true
		s.movieDay[s.model.movieDay[i]]++
		s.dayCount[day]++
		if s.floored[day] && s.dayCount[day] == s.cons.MinShowsPerDay {
			s.shortDays--
		}

		s.walk(pos+1, revenue+s.candidates[i].ExpectedRevenue)

		if s.floored[day] && s.dayCount[day] == s.cons.MinShowsPerDay {
			s.shortDays++
		}
		s.selected[i] = false
		s.movieDay[s.model.movieDay[i]]--
		s.dayCount[day]--
	}

	// Skipping i must leave the day able to reach its floor.
	if !s.floored[day] || s.dayCount[day]+s.remaining[day] >= s.cons.MinShowsPerDay {
		s.walk(pos+1, revenue)
	}

	if s.floored[day] {
		s.remaining[day]++
	}
}

func (s *bbSearch) feasible(i int) bool {
	if s.movieDay[s.model.movieDay[i]] >= s.cons.MaxShowsPerMoviePerDay {
		return false
	}
	if s.dayCount[s.model.day[i]] >= s.maxPerDay {
		return false
	}
	for _, j := range s.model.conflicts[i] {
		if s.selected[j] {
			return false
		}
	}
	return true
}

// uncoveredDay reports a day that has enough candidates to satisfy the
// coverage floor but too few selected shows. Used to vet the greedy warm
// start and to name the starved day when no compliant selection exists.
func uncoveredDay(model *selectionModel, selected []bool, minPerDay int) (string, bool) {
	for day, group := range model.dayGroups {
		if len(group) < minPerDay {
			continue
		}
		count := 0
		for _, i := range group {
			if selected[i] {
				count++
			}
		}
		if count < minPerDay {
			return day, true
		}
	}
	return "", false
}

// revenueOrder returns candidate indices sorted by descending expected
// revenue, stable so equal-revenue candidates keep their priority order.
func revenueOrder(candidates []domain.Candidate) []int {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].ExpectedRevenue > candidates[order[b]].ExpectedRevenue
	})
	return order
}
