package engine

import (
	"github.com/standardbeagle/scalarviz/internal/query"
)

// GetAllGraph lists every known tag with its contributing files (§4.9).
func (e *Engine) GetAllGraph() map[string][]string {
	return e.graph.AllGraphInfo()
}

// GetScalarData runs the query pipeline for a batch of graph queries
// (§4.8/§4.9), returning one QueryResult per request entry in order. An
// unknown tag or file yields an empty-points line rather than an error,
// per §7's "unknown tags yield an empty line, not an error".
func (e *Engine) GetScalarData(queries []query.GraphQuery) ([]query.QueryResult, error) {
	deps := query.Deps{Graph: e.graph, Store: e.store}
	results := make([]query.QueryResult, 0, len(queries))
	for _, q := range queries {
		res, err := query.RunQuery(deps, q)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// SuggestTags returns up to limit known tags within Levenshtein distance
// maxSuggestDistance (4) of query, closest first, for the unknown-tag enrichment of §4.9.2 /
// §9.1. Grounded on internal/mcp/symbol_type_resolver.go's
// findClosestMatch, generalized from a single best match to a ranked
// top-N list since a query tool benefits from seeing several candidates.
func (e *Engine) SuggestTags(tagQuery string, limit int) []string {
	return suggestTags(e.store.KnownTags(), tagQuery, limit)
}
