package mapper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/colors"
	"github.com/merenlab/anvigo/internal/kgml"
	"github.com/merenlab/anvigo/internal/membership"
)

const standardMap = `<?xml version="1.0"?>
<pathway name="path:ko00010" org="ko" number="00010" title="Glycolysis / Gluconeogenesis">
    <entry id="1" name="ko:K00001 ko:K00004" type="ortholog" reaction="rn:R00001">
        <graphics name="K00001, ADH" fgcolor="#000000" bgcolor="#BFBFFF" type="rectangle" x="100" y="100" width="46" height="17"/>
    </entry>
    <entry id="2" name="ko:K00002" type="ortholog" reaction="rn:R00002">
        <graphics name="K00002" fgcolor="#000000" bgcolor="#BFBFFF" type="rectangle" x="100" y="150" width="46" height="17"/>
    </entry>
    <entry id="3" name="ko:K00003" type="ortholog" reaction="rn:R00003">
        <graphics name="K00003" fgcolor="#000000" bgcolor="#BFBFFF" type="rectangle" x="100" y="200" width="46" height="17"/>
    </entry>
    <entry id="4" name="cpd:C00031" type="compound">
        <graphics name="C00031" fgcolor="#000000" bgcolor="#FFFFFF" type="circle" x="200" y="100" width="8" height="8"/>
    </entry>
    <reaction id="1" name="rn:R00001" type="irreversible">
        <substrate id="4" name="cpd:C00031"/>
    </reaction>
</pathway>`

const lacking = `<?xml version="1.0"?>
<pathway name="path:ko00020" org="ko" number="00020" title="Citrate cycle">
    <entry id="1" name="ko:K09999" type="ortholog">
        <graphics name="K09999" fgcolor="#000000" bgcolor="#BFBFFF" type="rectangle" x="100" y="100" width="46" height="17"/>
    </entry>
</pathway>`

const globalMap = `<?xml version="1.0"?>
<pathway name="path:ko01100" org="ko" number="01100" title="Metabolic pathways">
    <entry id="10" name="ko:K00001" type="ortholog" reaction="rn:R00001">
        <graphics name="K00001" fgcolor="#99CC66" bgcolor="#FFFFFF" type="line" coords="10,10,50,10" width="1"/>
    </entry>
    <entry id="11" name="ko:K00002" type="ortholog" reaction="rn:R00002">
        <graphics name="K00002" fgcolor="#99CC66" bgcolor="#FFFFFF" type="line" coords="50,10,90,10" width="1"/>
    </entry>
    <entry id="20" name="cpd:C00001" type="compound">
        <graphics name="C00001" fgcolor="#99CC66" bgcolor="#FFFFFF" type="circle" x="50" y="10" width="8" height="8"/>
    </entry>
    <entry id="21" name="cpd:C00002" type="compound">
        <graphics name="C00002" fgcolor="#99CC66" bgcolor="#FFFFFF" type="circle" x="90" y="10" width="8" height="8"/>
    </entry>
    <reaction id="10" name="rn:R00001" type="irreversible">
        <product id="20" name="cpd:C00001"/>
    </reaction>
    <reaction id="11" name="rn:R00002" type="irreversible">
        <product id="21" name="cpd:C00002"/>
    </reaction>
</pathway>`

func parse(t *testing.T, doc string) *kgml.Pathway {
	t.Helper()
	p, err := kgml.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return p
}

func graphicsOf(p *kgml.Pathway, id string) kgml.Graphics {
	e := p.Entry(id)
	if e == nil || len(e.Graphics) == 0 {
		panic(fmt.Sprintf("entry %s has no graphics", id))
	}
	return p.Graphics[e.Graphics[0]]
}

func position(order []int, idx int) int {
	for i, v := range order {
		if v == idx {
			return i
		}
	}
	return -1
}

func TestColorPathway_Combination(t *testing.T) {
	cmap, err := colors.Lookup("tab10")
	require.NoError(t, err)
	a, err := colors.NewByCombination(cmap, []string{"A", "B", "C"}, false)
	require.NoError(t, err)

	mem := membership.Resolve(map[string][]string{
		"A": {"K00001", "K00002"},
		"C": {"K00001"},
	})
	p := parse(t, standardMap)

	ok, err := ColorPathway(p, mem, a, false, DefaultBackdrop)
	require.NoError(t, err)
	require.True(t, ok)

	g := graphicsOf(p, "1")
	assert.Equal(t, a.Color(4), g.BgColor, "A and C share K00001")
	assert.Equal(t, black, g.FgColor)
	assert.Equal(t, a.Color(0), graphicsOf(p, "2").BgColor)

	unselected := graphicsOf(p, "3")
	assert.Equal(t, black, unselected.FgColor)
	assert.Equal(t, white, unselected.BgColor)

	// compounds of standard maps keep their colors
	assert.Equal(t, "#FFFFFF", graphicsOf(p, "4").BgColor)

	order := p.DrawOrder()
	assert.Greater(t, position(order, 0), position(order, 1), "(A, C) is drawn over (A)")
	assert.Less(t, position(order, 2), position(order, 1))
}

func TestColorPathway_ByCount(t *testing.T) {
	cmap, err := colors.Lookup("viridis")
	require.NoError(t, err)
	a, err := colors.NewByCount(cmap, 3, false)
	require.NoError(t, err)

	mem := membership.Resolve(map[string][]string{
		"A": {"K00001", "K00002"},
		"B": {"K00002"},
		"C": {"K00004", "K00002"},
	})
	p := parse(t, standardMap)
	ok, err := ColorPathway(p, mem, a, false, DefaultBackdrop)
	require.NoError(t, err)
	require.True(t, ok)

	// entry 1 represents K00001 in A and K00004 in C
	assert.Equal(t, a.Color(1), graphicsOf(p, "1").BgColor)
	assert.Equal(t, a.Color(2), graphicsOf(p, "2").BgColor)
}

func TestColorPathway_InconsistentMembership(t *testing.T) {
	cmap, err := colors.Lookup("tab10")
	require.NoError(t, err)
	a, err := colors.NewByCombination(cmap, []string{"A", "B", "C"}, false)
	require.NoError(t, err)

	t.Run("unknown combination", func(t *testing.T) {
		mem := membership.Resolve(map[string][]string{"D": {"K00001"}})
		_, err := ColorPathway(parse(t, standardMap), mem, a, false, DefaultBackdrop)
		assert.ErrorIs(t, err, anvierr.ErrInconsistentMembership)
	})

	t.Run("empty source set", func(t *testing.T) {
		mem := membership.Map{"K00002": {}}
		_, err := ColorPathway(parse(t, standardMap), mem, a, false, DefaultBackdrop)
		assert.ErrorIs(t, err, anvierr.ErrInconsistentMembership)
	})
}

func TestColorPathway_Lacking(t *testing.T) {
	a, err := colors.NewStatic("#ff0000")
	require.NoError(t, err)
	mem := membership.Resolve(map[string][]string{"A": {"K00001"}})

	p := parse(t, lacking)
	before := append([]kgml.Graphics(nil), p.Graphics...)
	ok, err := ColorPathway(p, mem, a, false, DefaultBackdrop)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, p.Graphics)

	ok, err = ColorPathway(p, mem, a, true, DefaultBackdrop)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, white, p.Graphics[0].BgColor)
}

func TestColorPathway_GlobalAndOverview(t *testing.T) {
	a, err := colors.NewStatic("#FF0000")
	require.NoError(t, err)
	mem := membership.Resolve(map[string][]string{"A": {"K00001"}})

	p := parse(t, globalMap)
	require.Equal(t, kgml.Global, p.Kind)
	ok, err := ColorPathway(p, mem, a, false, DefaultBackdrop)
	require.NoError(t, err)
	require.True(t, ok)

	g := graphicsOf(p, "10")
	assert.Equal(t, "#ff0000", g.FgColor)
	assert.Equal(t, white, g.BgColor)
	assert.Equal(t, 1.0, g.Width)
	assert.Equal(t, DefaultBackdrop.Global, graphicsOf(p, "11").FgColor)
	assert.Equal(t, "#ff0000", graphicsOf(p, "20").FgColor, "product of a highlighted reaction")
	assert.Equal(t, DefaultBackdrop.Global, graphicsOf(p, "21").FgColor)

	p = parse(t, strings.ReplaceAll(globalMap, "01100", "01200"))
	require.Equal(t, kgml.Overview, p.Kind)
	_, err = ColorPathway(p, mem, a, false, Backdrop{Global: "#00ff00", Other: "#eeeeee"})
	require.NoError(t, err)
	assert.Equal(t, overviewLineWidth, graphicsOf(p, "10").Width)
	assert.Equal(t, "#eeeeee", graphicsOf(p, "11").FgColor)
}

func TestColorPathway_Original(t *testing.T) {
	mem := membership.Resolve(map[string][]string{"A": {"K00001", "K00002"}})
	p := parse(t, standardMap)

	ok, err := ColorPathway(p, mem, colors.NewOriginal(), false, DefaultBackdrop)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "#BFBFFF", graphicsOf(p, "1").BgColor)
	assert.Equal(t, black, graphicsOf(p, "1").FgColor)
	assert.Equal(t, white, graphicsOf(p, "3").BgColor)

	order := p.DrawOrder()
	assert.Greater(t, position(order, 0), position(order, 2))
	assert.Greater(t, position(order, 1), position(order, 2))
}
