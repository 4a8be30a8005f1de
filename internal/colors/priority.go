package colors

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/merenlab/anvigo/internal/anvierr"
)

// Mode selects how colors and overlay priorities are assigned.
type Mode int

const (
	// Static colors every selected reaction with one fixed color.
	Static Mode = iota
	// ByCount colors reactions by the number of sources containing them.
	ByCount
	// ByCombination colors reactions by the exact set of sources containing them.
	ByCombination
	// Original keeps the reference map's own colors.
	Original
)

func (m Mode) String() string {
	switch m {
	case Static:
		return "static"
	case ByCount:
		return "by_count"
	case ByCombination:
		return "by_combination"
	case Original:
		return "original"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Scheme values accepted for the dynamic coloring modes.
const (
	SchemeAuto        = ""
	SchemeCount       = "count"
	SchemeCombination = "combination"
)

// ResolveScheme picks the dynamic mode for a run over the given number of
// sources. An empty scheme is inferred: fewer than four sources are colored
// by combination, four or more by count.
func ResolveScheme(scheme string, sources int) (Mode, error) {
	switch scheme {
	case SchemeAuto:
		if sources < 4 {
			return ByCombination, nil
		}
		return ByCount, nil
	case SchemeCount, "by_count":
		return ByCount, nil
	case SchemeCombination, "by_combination", "by_database":
		return ByCombination, nil
	}
	return 0, anvierr.Config("unknown colormap scheme %q (expected %q or %q)", scheme, SchemeCount, SchemeCombination)
}

// Pair is the foreground and background color of a graphics element.
type Pair struct {
	Fg string
	Bg string
}

// Assignment is an ordered color table with one overlay priority per color.
// Higher priorities are drawn on top of lower ones.
type Assignment struct {
	mode       Mode
	colors     []string
	priorities []float64
	labels     []string
	comboIndex map[string]int
}

// NewStatic assigns a single color at priority 1.
func NewStatic(hex string) (*Assignment, error) {
	h, err := NormalizeHex(hex)
	if err != nil {
		return nil, err
	}
	return &Assignment{
		mode:       Static,
		colors:     []string{h},
		priorities: []float64{1},
		labels:     []string{"present"},
	}, nil
}

// NewOriginal keeps the reference map's colors. Its priorities are derived
// per map with OriginalPriorities.
func NewOriginal() *Assignment {
	return &Assignment{mode: Original}
}

// NewByCount samples cmap at n evenly spaced points over [0, 1], one per
// possible source count. Point i has priority i/(n-1), so reactions shared
// by more sources overlay those in fewer; reverse inverts the priorities.
func NewByCount(cmap Colormap, n int, reverse bool) (*Assignment, error) {
	if n < 1 {
		return nil, anvierr.Config("coloring by count needs at least one source")
	}
	a := &Assignment{mode: ByCount}
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		p := t
		if reverse {
			p = 1 - t
		}
		a.colors = append(a.colors, Hex(cmap.At(t)))
		a.priorities = append(a.priorities, p)
		a.labels = append(a.labels, strconv.Itoa(i+1))
	}
	return a, nil
}

// NewByCombination gives each non-empty subset of sources its own entry of
// cmap, in Combinations order. The number of subsets must not exceed cmap.N().
func NewByCombination(cmap Colormap, sources []string, reverse bool) (*Assignment, error) {
	if len(sources) == 0 {
		return nil, anvierr.Config("coloring by combination needs at least one source")
	}
	if len(sources) > 20 {
		return nil, anvierr.Capacity(1<<20, cmap.N())
	}
	combos := Combinations(sources)
	capacity := cmap.N()
	if len(combos) > capacity {
		return nil, anvierr.Capacity(len(combos), capacity)
	}

	a := &Assignment{
		mode:       ByCombination,
		comboIndex: make(map[string]int, len(combos)),
	}
	for i, combo := range combos {
		p := float64(i+1) / float64(capacity)
		if reverse {
			p = 1 - float64(i)/float64(capacity)
		}
		a.colors = append(a.colors, Hex(cmap.Index(i)))
		a.priorities = append(a.priorities, p)
		a.labels = append(a.labels, strings.Join(combo, ", "))
		a.comboIndex[comboKey(combo)] = i
	}
	return a, nil
}

// Combinations enumerates the non-empty subsets of sources by increasing
// size, and within a size in lexicographic order of source positions.
func Combinations(sources []string) [][]string {
	var out [][]string
	n := len(sources)
	for k := 1; k <= n; k++ {
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			combo := make([]string, k)
			for i, j := range idx {
				combo[i] = sources[j]
			}
			out = append(out, combo)

			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
	return out
}

// OriginalPriorities ranks the distinct color pairs in order of first
// appearance: the k-th of n distinct pairs gets priority k/n, so pairs
// declared later overlay earlier ones.
func OriginalPriorities(pairs []Pair) map[Pair]float64 {
	var distinct []Pair
	seen := make(map[Pair]bool)
	for _, p := range pairs {
		if !seen[p] {
			seen[p] = true
			distinct = append(distinct, p)
		}
	}
	out := make(map[Pair]float64, len(distinct))
	for i, p := range distinct {
		out[p] = float64(i+1) / float64(len(distinct))
	}
	return out
}

// Mode returns the assignment's coloring mode.
func (a *Assignment) Mode() Mode { return a.mode }

// Len returns the number of colors in the table.
func (a *Assignment) Len() int { return len(a.colors) }

// Color returns color i of the table.
func (a *Assignment) Color(i int) string { return a.colors[i] }

// Priority returns the overlay priority of color i.
func (a *Assignment) Priority(i int) float64 { return a.priorities[i] }

// Labels returns legend labels: source counts or joined source combinations.
func (a *Assignment) Labels() []string { return a.labels }

// Colors returns a copy of the color table.
func (a *Assignment) Colors() []string {
	return append([]string(nil), a.colors...)
}

// ColorFor resolves the color of a reaction annotated in the given sources.
// The source list may contain duplicates. An empty list, a count outside the
// table, or a combination absent from the table is ErrInconsistentMembership.
func (a *Assignment) ColorFor(sources []string) (string, error) {
	uniq := uniqueSorted(sources)
	if len(uniq) == 0 {
		return "", anvierr.Membership("no sources contribute to the reaction")
	}

	switch a.mode {
	case Static:
		return a.colors[0], nil
	case ByCount:
		if len(uniq) > len(a.colors) {
			return "", anvierr.Membership("reaction is in %d sources but the color table covers %d", len(uniq), len(a.colors))
		}
		return a.colors[len(uniq)-1], nil
	case ByCombination:
		i, ok := a.comboIndex[comboKey(uniq)]
		if !ok {
			return "", anvierr.Membership("source combination (%s) is not in the color table", strings.Join(uniq, ", "))
		}
		return a.colors[i], nil
	}
	return "", fmt.Errorf("color lookup not supported in %s mode", a.mode)
}

func comboKey(combo []string) string {
	return strings.Join(uniqueSorted(combo), "\x00")
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
