package fuzzyfinder

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

type Rank struct {
	// Source is used as the source for matching.
	Source string

	// Target is the word matched against.
	Target string

	// Distance is the Levenshtein distance between Source and Target.
	Distance int

	// Location of Target in original list
	OriginalIndex int
}

// RankFind returns the keys that contain the characters of query in order,
// closest first.
func RankFind(keys []string, query string) []Rank {
	ranksLib := fuzzy.RankFindFold(query, keys)
	sort.Sort(ranksLib)
	ranks := make([]Rank, ranksLib.Len())
	for i, r := range ranksLib {
		ranks[i] = Rank{
			Source:        r.Source,
			Target:        r.Target,
			Distance:      r.Distance,
			OriginalIndex: r.OriginalIndex,
		}
	}
	return ranks
}

type NodeMatch struct {
	Node     mtree.Node
	Distance int
}

// FindNodes matches query against node titles, optionally restricted to
// one kind (KindUnspecified matches all).
func FindNodes(nodes []mtree.Node, kind mtree.Kind, query string) []NodeMatch {
	var candidates []mtree.Node
	for _, n := range nodes {
		if kind == mtree.KindUnspecified || n.Kind == kind {
			candidates = append(candidates, n)
		}
	}
	titles := make([]string, len(candidates))
	for i, n := range candidates {
		titles[i] = n.Title
	}
	ranks := RankFind(titles, query)
	out := make([]NodeMatch, len(ranks))
	for i, r := range ranks {
		out[i] = NodeMatch{Node: candidates[r.OriginalIndex], Distance: r.Distance}
	}
	return out
}
