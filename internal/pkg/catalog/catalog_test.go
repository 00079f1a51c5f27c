package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linkBase = "https://payment-link-v3.pagar.me"

func TestDefaultCatalog(t *testing.T) {
	cat := Default()

	assert.Equal(t, []string{"experience", "last_option", "transformation"}, cat.IDs())

	p, ok := cat.Get("experience")
	require.True(t, ok)
	assert.Equal(t, int64(39999), p.Amount)
	assert.NotEmpty(t, p.StaticFallbackURL)

	_, ok = cat.Get("unknown")
	assert.False(t, ok)
}

func TestCatalog_ListIsACopy(t *testing.T) {
	cat := New(Plan{ID: "a", Amount: 1}, Plan{ID: "b", Amount: 2}, Plan{ID: "a", Amount: 3})
	list := cat.List()
	require.Len(t, list, 2)
	list[0].Amount = 99

	p, _ := cat.Get("a")
	assert.Equal(t, int64(1), p.Amount)
}

func TestNewLinkRef(t *testing.T) {
	assert.Equal(t, LinkRef{ID: "pl_abc", URL: linkBase + "/pl_abc"}, NewLinkRef("pl_abc", linkBase))
	assert.Equal(t, LinkRef{ID: "pl_abc", URL: linkBase + "/pl_abc"}, NewLinkRef(linkBase+"/pl_abc", linkBase))
	assert.Equal(t, LinkRef{}, NewLinkRef(" ", linkBase))
}

func TestResolveLinks_WithoutLookupKeepsConfiguration(t *testing.T) {
	links := ResolveLinks(context.Background(), Default(), map[string]string{
		"experience": "pl_exp",
		"unknown":    "pl_x",
	}, linkBase, nil)

	ref, ok := links.Get("experience")
	require.True(t, ok)
	assert.Equal(t, "pl_exp", ref.ID)
	assert.Len(t, links.All(), 1)
}

func TestResolveLinks_SwapsMismatchedAmounts(t *testing.T) {
	amounts := map[string]int64{
		"pl_two":   107997, // configured for last_option, priced as transformation
		"pl_three": 75998,  // configured for transformation, priced as last_option
		"pl_one":   39999,
	}
	lookup := func(_ context.Context, id string) (int64, error) {
		return amounts[id], nil
	}

	links := ResolveLinks(context.Background(), Default(), map[string]string{
		"experience":     "pl_one",
		"last_option":    "pl_two",
		"transformation": "pl_three",
	}, linkBase, lookup)

	ref, _ := links.Get("experience")
	assert.Equal(t, "pl_one", ref.ID)
	ref, _ = links.Get("last_option")
	assert.Equal(t, "pl_three", ref.ID)
	ref, _ = links.Get("transformation")
	assert.Equal(t, "pl_two", ref.ID)
}

func TestResolveLinks_MismatchMatchingNoPlanIsKept(t *testing.T) {
	lookup := func(_ context.Context, id string) (int64, error) {
		if id == "pl_err" {
			return 0, errors.New("boom")
		}
		return 12345, nil
	}
	links := ResolveLinks(context.Background(), Default(), map[string]string{
		"experience":  "pl_odd",
		"last_option": "pl_err",
	}, linkBase, lookup)

	ref, _ := links.Get("experience")
	assert.Equal(t, "pl_odd", ref.ID)
	ref, _ = links.Get("last_option")
	assert.Equal(t, "pl_err", ref.ID)
}

func TestReconcileLinks_MovesLinkToUnconfiguredPlan(t *testing.T) {
	out := reconcileLinks(Default(),
		map[string]LinkRef{"experience": {ID: "pl_big"}},
		map[string]int64{"pl_big": 107997})

	_, ok := out["experience"]
	assert.False(t, ok)
	assert.Equal(t, "pl_big", out["transformation"].ID)
}
