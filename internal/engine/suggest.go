package engine

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// maxSuggestDistance bounds how far a candidate tag may be (in Levenshtein
// edits) from the query before it is not worth suggesting at all.
const maxSuggestDistance = 4

// suggestTags ranks candidates by Levenshtein distance to query, ascending,
// returning at most limit non-exact matches. This is an additive
// enrichment (§4.9.2): the source has no notion of "did you mean" for an
// unrecognized tag name, it simply returns an empty line.
func suggestTags(candidates []string, tagQuery string, limit int) []string {
	type scored struct {
		tag  string
		dist int
	}
	var ranked []scored
	for _, c := range candidates {
		if c == tagQuery {
			continue
		}
		d := edlib.LevenshteinDistance(tagQuery, c)
		if d <= maxSuggestDistance {
			ranked = append(ranked, scored{tag: c, dist: d})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].tag < ranked[j].tag
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.tag
	}
	return out
}
