package eval

import (
	"strings"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
)

// TermsMatchInOrder reports whether every term in terms occurs in
// pathLower, left to right, in order. Terms may match within the same path
// component or across components, but a later term can never match before
// an earlier one's match position. "blaze" does not do fuzzy search: the
// user is expected to remember some semblance of the name in order.
func TermsMatchInOrder(pathLower string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	searchStart := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		pos := strings.Index(pathLower[searchStart:], term)
		if pos < 0 {
			return false
		}
		searchStart += pos + len(term)
	}
	return true
}

// collectTextTermsInOrder gathers bare text terms (not predicates) from the
// query in left-to-right order. For Or it only descends into the first
// branch, since ordering can't be enforced consistently across branches.
func collectTextTermsInOrder(expr query.Expr, out *[]string) {
	switch n := expr.(type) {
	case query.Text:
		t := strings.ToLower(strings.TrimSpace(n.Value))
		if t != "" {
			*out = append(*out, t)
		}
	case query.And:
		for _, c := range n.Children {
			collectTextTermsInOrder(c, out)
		}
	case query.Or:
		if len(n.Children) > 0 {
			collectTextTermsInOrder(n.Children[0], out)
		}
	case query.Not:
		// Negated terms don't participate in order matching.
	case query.Pred:
		// Predicates don't participate in path-order matching.
	}
}

// ApplyPathOrderFilter filters fileIds to those whose reconstructed path
// contains every bare text term from query, in left-to-right order. It is a
// no-op unless the query has 2 or more bare text terms; it runs after
// boolean evaluation and before ranking.
func ApplyPathOrderFilter(idx IndexReader, q query.Query, fileIds []index.FileId) []index.FileId {
	var terms []string
	collectTextTermsInOrder(q.Expr, &terms)
	if len(terms) < 2 {
		return fileIds
	}

	out := make([]index.FileId, 0, len(fileIds))
	for _, fid := range fileIds {
		path, err := idx.ReconstructPath(fid)
		if err != nil {
			continue
		}
		if TermsMatchInOrder(strings.ToLower(path), terms) {
			out = append(out, fid)
		}
	}
	return out
}
