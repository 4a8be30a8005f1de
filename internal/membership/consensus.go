package membership

import "sort"

// ConsensusOptions tune the majority vote that assigns an identifier to a
// gene cluster.
type ConsensusOptions struct {
	// Threshold is the minimum fraction of a cluster's genes that must carry
	// the most frequent identifier. Zero disables the check.
	Threshold float64
	// DiscardTies leaves clusters without consensus when the top count is
	// shared. Otherwise the lexicographically smallest tied identifier wins.
	DiscardTies bool
}

// Clusters maps gene cluster -> genome -> gene caller ids.
type Clusters map[string]map[string][]int

// Calls maps genome -> gene caller id -> identifier.
type Calls map[string]map[int]string

// ConsensusIDs assigns each gene cluster the identifier annotating most of
// its genes. Clusters without any annotated gene, or failing the options,
// are absent from the result.
func ConsensusIDs(clusters Clusters, calls Calls, opts ConsensusOptions) map[string]string {
	out := make(map[string]string)
	for cluster, genomes := range clusters {
		counts := make(map[string]int)
		total := 0
		for genome, genes := range genomes {
			for _, g := range genes {
				total++
				if id, ok := calls[genome][g]; ok && id != "" {
					counts[id]++
				}
			}
		}
		if len(counts) == 0 {
			continue
		}

		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if counts[ids[i]] != counts[ids[j]] {
				return counts[ids[i]] > counts[ids[j]]
			}
			return ids[i] < ids[j]
		})

		top := ids[0]
		if len(ids) > 1 && counts[ids[1]] == counts[top] && opts.DiscardTies {
			continue
		}
		if opts.Threshold > 0 && float64(counts[top])/float64(total) < opts.Threshold {
			continue
		}
		out[cluster] = top
	}
	return out
}

// FromClusters builds a Map in which each consensus identifier is annotated
// by every genome contributing genes to a cluster carrying it.
func FromClusters(clusters Clusters, consensus map[string]string) Map {
	m := make(Map)
	for cluster, id := range consensus {
		for genome, genes := range clusters[cluster] {
			if len(genes) > 0 {
				m.Add(genome, id)
			}
		}
	}
	return m
}
