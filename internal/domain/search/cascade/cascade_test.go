package cascade

import (
	"reflect"
	"testing"
)

func condKeys(conds []Condition) []string {
	keys := make([]string, 0, len(conds))
	for _, c := range conds {
		keys = append(keys, c.Key)
	}
	return keys
}

func TestBuildFullQuery(t *testing.T) {
	tiers := Build("wifi", "")

	if len(tiers) != Tiers {
		t.Fatalf("expected %d tiers, got %d", Tiers, len(tiers))
	}

	// Tier 1: heading tag + text containment.
	t1 := tiers[0]
	if t1.Rank != TitleText {
		t.Errorf("tier 1 rank = %v, want TitleText", t1.Rank)
	}
	if got := condKeys(t1.Must); !reflect.DeepEqual(got, []string{"tag", "text"}) {
		t.Errorf("tier 1 must keys = %v", got)
	}
	if len(t1.MustNot) != 0 {
		t.Errorf("tier 1 must_not = %v, want none", t1.MustNot)
	}
	if t1.Must[1].Type != TextContains || t1.Must[1].Text != "wifi" {
		t.Errorf("tier 1 text condition = %+v", t1.Must[1])
	}

	// Tier 2: body (not heading) + text containment.
	t2 := tiers[1]
	if t2.Rank != BodyText {
		t.Errorf("tier 2 rank = %v, want BodyText", t2.Rank)
	}
	if got := condKeys(t2.Must); !reflect.DeepEqual(got, []string{"text"}) {
		t.Errorf("tier 2 must keys = %v", got)
	}
	if got := condKeys(t2.MustNot); !reflect.DeepEqual(got, []string{"tag"}) {
		t.Errorf("tier 2 must_not keys = %v", got)
	}

	// Tier 3: heading without containment.
	t3 := tiers[2]
	if t3.Rank != TitleOnly {
		t.Errorf("tier 3 rank = %v, want TitleOnly", t3.Rank)
	}
	if got := condKeys(t3.Must); !reflect.DeepEqual(got, []string{"tag"}) {
		t.Errorf("tier 3 must keys = %v", got)
	}
	if got := condKeys(t3.MustNot); !reflect.DeepEqual(got, []string{"text"}) {
		t.Errorf("tier 3 must_not keys = %v", got)
	}

	// Tier 4: neither.
	t4 := tiers[3]
	if t4.Rank != NoText {
		t.Errorf("tier 4 rank = %v, want NoText", t4.Rank)
	}
	if len(t4.Must) != 0 {
		t.Errorf("tier 4 must = %v, want none", t4.Must)
	}
	if got := condKeys(t4.MustNot); !reflect.DeepEqual(got, []string{"tag", "text"}) {
		t.Errorf("tier 4 must_not keys = %v", got)
	}
}

func TestBuildHeadingTagsDisjoint(t *testing.T) {
	tiers := Build("power", "")

	heading := tiers[0].Must[0]
	if heading.Type != TagAny {
		t.Fatalf("expected TagAny heading condition, got %+v", heading)
	}
	want := []string{"h1", "h2", "h3", "h4", "h5", "h6"}
	if !reflect.DeepEqual(heading.Values, want) {
		t.Errorf("heading tags = %v, want %v", heading.Values, want)
	}

	// The same tag set must be forbidden on the body tiers so ranks stay
	// disjoint along the tag dimension.
	if !reflect.DeepEqual(tiers[1].MustNot[0].Values, want) {
		t.Errorf("tier 2 forbidden tags = %v, want %v", tiers[1].MustNot[0].Values, want)
	}
	if !reflect.DeepEqual(tiers[3].MustNot[0].Values, want) {
		t.Errorf("tier 4 forbidden tags = %v, want %v", tiers[3].MustNot[0].Values, want)
	}
}

func TestBuildEmptyQuery(t *testing.T) {
	tiers := Build("", "")

	for i, tier := range tiers {
		for _, conds := range [][]Condition{tier.Must, tier.MustNot} {
			for _, c := range conds {
				if c.Type == TextContains {
					t.Errorf("tier %d carries a text condition for an empty query: %+v", i+1, c)
				}
			}
		}
	}

	// The tag dimension is still partitioned.
	if got := condKeys(tiers[0].Must); !reflect.DeepEqual(got, []string{"tag"}) {
		t.Errorf("tier 1 must keys = %v", got)
	}
	if got := condKeys(tiers[1].MustNot); !reflect.DeepEqual(got, []string{"tag"}) {
		t.Errorf("tier 2 must_not keys = %v", got)
	}
}

func TestBuildWithSection(t *testing.T) {
	tiers := Build("wifi", "docs")

	for i, tier := range tiers {
		last := tier.Must[len(tier.Must)-1]
		if last.Type != FacetIs || last.Key != "sections" {
			t.Errorf("tier %d last must condition = %+v, want sections facet", i+1, last)
			continue
		}
		if !reflect.DeepEqual(last.Values, []string{"docs"}) {
			t.Errorf("tier %d section values = %v", i+1, last.Values)
		}
	}
}

func TestBuildEmptySectionOmitted(t *testing.T) {
	tiers := Build("wifi", "")
	for i, tier := range tiers {
		for _, c := range tier.Must {
			if c.Type == FacetIs {
				t.Errorf("tier %d carries a facet condition without a section: %+v", i+1, c)
			}
		}
	}
}

func TestRankString(t *testing.T) {
	tests := []struct {
		rank Rank
		want string
	}{
		{TitleText, "title_text"},
		{BodyText, "body_text"},
		{TitleOnly, "title_only"},
		{NoText, "no_text"},
		{Rank(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.rank.String(); got != tt.want {
			t.Errorf("Rank(%d).String() = %q, want %q", tt.rank, got, tt.want)
		}
	}
}
