// Package cascade builds the tiered filter specifications that narrow
// search candidates by decreasing strictness.
package cascade

// Tiers is the number of filter tiers in a cascade.
const Tiers = 4

// Rank orders tiers from strictest (highest priority) to broadest.
type Rank int

const (
	// TitleText requires a heading tag and query text containment.
	TitleText Rank = iota
	// BodyText requires a body tag and query text containment.
	BodyText
	// TitleOnly requires a heading tag without text containment.
	TitleOnly
	// NoText applies no tag or text requirement.
	NoText
)

// String returns the rank name for logs and metrics labels.
func (r Rank) String() string {
	switch r {
	case TitleText:
		return "title_text"
	case BodyText:
		return "body_text"
	case TitleOnly:
		return "title_only"
	case NoText:
		return "no_text"
	default:
		return "unknown"
	}
}

// TitleTags lists the heading element tags.
func TitleTags() []string {
	return []string{"h1", "h2", "h3", "h4", "h5", "h6"}
}

// ConditionType enumerates the supported filter condition kinds.
type ConditionType int

const (
	// TextContains matches documents whose field full-text-contains a phrase.
	TextContains ConditionType = iota
	// TagAny matches documents whose tag field equals any listed value.
	TagAny
	// FacetIs matches documents whose facet field equals one value exactly.
	FacetIs
)

// Condition is a single required or forbidden clause within a tier.
type Condition struct {
	Type   ConditionType
	Key    string
	Text   string
	Values []string
}

func textCond(query string) Condition {
	return Condition{Type: TextContains, Key: "text", Text: query}
}

func titleCond() Condition {
	return Condition{Type: TagAny, Key: "tag", Values: TitleTags()}
}

func sectionCond(section string) Condition {
	return Condition{Type: FacetIs, Key: "sections", Values: []string{section}}
}

// Tier is one immutable filter specification. Conditions within a tier
// combine with logical AND; MustNot clauses are forbidden conditions.
type Tier struct {
	Rank    Rank
	Must    []Condition
	MustNot []Condition
}

// Build produces the four-tier cascade for a query. The tiers partition
// candidates along the tag dimension (forbidden clauses keep ranks
// disjoint by tag) while text containment decreases in strictness:
//
//	1. heading tag + text containment
//	2. body tag + text containment
//	3. heading tag, no containment
//	4. neither
//
// An empty query drops the text conditions entirely, degenerating tiers
// 1-2 to pure tag filters. A non-empty section is appended as a required
// facet to every tier. Build is total: any input yields a valid cascade.
func Build(query, section string) [Tiers]Tier {
	hasText := query != ""

	var titleText, bodyText, titleOnly, noText Tier
	titleText = Tier{Rank: TitleText, Must: []Condition{titleCond()}}
	bodyText = Tier{Rank: BodyText, MustNot: []Condition{titleCond()}}
	titleOnly = Tier{Rank: TitleOnly, Must: []Condition{titleCond()}}
	noText = Tier{Rank: NoText, MustNot: []Condition{titleCond()}}

	if hasText {
		titleText.Must = append(titleText.Must, textCond(query))
		bodyText.Must = append(bodyText.Must, textCond(query))
		titleOnly.MustNot = append(titleOnly.MustNot, textCond(query))
		noText.MustNot = append(noText.MustNot, textCond(query))
	}

	tiers := [Tiers]Tier{titleText, bodyText, titleOnly, noText}

	if section != "" {
		for i := range tiers {
			tiers[i].Must = append(tiers[i].Must, sectionCond(section))
		}
	}

	return tiers
}
