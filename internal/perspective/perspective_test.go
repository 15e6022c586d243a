package perspective

import (
	"reflect"
	"testing"
)

func fixtureResolver() *Resolver {
	return NewResolver(map[string][]string{
		"adquirencia": {"Stone", "Cielo", "PagBank"},
	})
}

func fixtureDirectory() map[string]int64 {
	return map[string]int64{
		"stone":   1,
		"cielo":   2,
		"pagbank": 3,
		"nubank":  4,
	}
}

func TestNamesUnknownTagMeansNoRestriction(t *testing.T) {
	r := fixtureResolver()

	if got := r.Names("inexistente"); got != nil {
		t.Errorf("Names(unknown) = %v, want nil", got)
	}
	if got := r.Names(""); got != nil {
		t.Errorf("Names(\"\") = %v, want nil", got)
	}
}

func TestNamesIsCaseInsensitive(t *testing.T) {
	r := fixtureResolver()

	if got := r.Names(" Adquirencia "); len(got) != 3 {
		t.Errorf("Names = %v, want 3 entries", got)
	}
}

func TestResolveIDs(t *testing.T) {
	got := ResolveIDs([]string{"Cielo", "STONE", "Desconhecida", "cielo"}, fixtureDirectory())
	want := []int64{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveIDs = %v, want %v", got, want)
	}
}

func TestCompetitorSetPerspectiveOnly(t *testing.T) {
	r := fixtureResolver()

	ids, restricted := r.CompetitorSet("adquirencia", nil, fixtureDirectory())
	if !restricted {
		t.Error("expected restricted set")
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 3}) {
		t.Errorf("ids = %v, want [1 2 3]", ids)
	}
}

func TestCompetitorSetIntersection(t *testing.T) {
	r := fixtureResolver()

	ids, restricted := r.CompetitorSet("adquirencia", []int64{2, 4}, fixtureDirectory())
	if !restricted {
		t.Error("expected restricted set")
	}
	if !reflect.DeepEqual(ids, []int64{2}) {
		t.Errorf("ids = %v, want [2]", ids)
	}
}

func TestCompetitorSetEmptyIntersectionStaysRestricted(t *testing.T) {
	r := fixtureResolver()

	ids, restricted := r.CompetitorSet("adquirencia", []int64{4}, fixtureDirectory())
	if !restricted {
		t.Error("an empty intersection is still a restriction")
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want empty", ids)
	}
}

func TestCompetitorSetExplicitOnly(t *testing.T) {
	r := fixtureResolver()

	ids, restricted := r.CompetitorSet("", []int64{4, 2}, fixtureDirectory())
	if !restricted {
		t.Error("explicit filter is a restriction")
	}
	if !reflect.DeepEqual(ids, []int64{4, 2}) {
		t.Errorf("ids = %v, want [4 2]", ids)
	}
}

func TestCompetitorSetUnconstrained(t *testing.T) {
	r := fixtureResolver()

	ids, restricted := r.CompetitorSet("", nil, fixtureDirectory())
	if restricted {
		t.Error("no tag and no explicit filter should be unconstrained")
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want empty", ids)
	}
}
