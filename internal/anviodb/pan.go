package anviodb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/membership"
)

// Pan is a pangenome database.
type Pan struct {
	*DB
}

// OpenPan opens a pan database.
func OpenPan(path string) (*Pan, error) {
	d, err := openTyped(path, TypePan)
	if err != nil {
		return nil, err
	}
	return &Pan{DB: d}, nil
}

// ProjectName returns the pan project name.
func (p *Pan) ProjectName() string {
	v, _ := p.Get("project_name")
	return v
}

// GenomesStorageHash returns the hash of the genomes storage used to build the pangenome.
func (p *Pan) GenomesStorageHash() string {
	v, _ := p.Get("genomes_storage_hash")
	return v
}

// GenomeNames lists external then internal genomes of the pangenome.
func (p *Pan) GenomeNames() []string {
	ext, _ := p.Get("external_genome_names")
	in, _ := p.Get("internal_genome_names")
	return append(splitList(ext), splitList(in)...)
}

// ConsensusOptions returns the consensus parameters stored with the
// pangenome's reaction network, or zero values when none was stored.
func (p *Pan) ConsensusOptions() (membership.ConsensusOptions, error) {
	var opts membership.ConsensusOptions
	if v, ok := p.Get("reaction_network_consensus_threshold"); ok {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 1 {
			return opts, anvierr.Config("stored consensus threshold %q is not a fraction", v)
		}
		opts.Threshold = t
	}
	if v, ok := p.Get("reaction_network_discard_ties"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, anvierr.Config("stored discard ties flag %q is not an integer", v)
		}
		opts.DiscardTies = n != 0
	}
	return opts, nil
}

// GeneClusters maps gene cluster -> genome -> gene caller ids.
func (p *Pan) GeneClusters(ctx context.Context) (membership.Clusters, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT gene_cluster_id, genome_name, gene_caller_id FROM gene_clusters ORDER BY entry_id`)
	if err != nil {
		return nil, fmt.Errorf("query gene clusters: %w", err)
	}
	defer rows.Close()

	clusters := make(membership.Clusters)
	for rows.Next() {
		var cluster, genome string
		var gene int
		if err := rows.Scan(&cluster, &genome, &gene); err != nil {
			return nil, fmt.Errorf("scan gene cluster: %w", err)
		}
		if clusters[cluster] == nil {
			clusters[cluster] = make(map[string][]int)
		}
		clusters[cluster][genome] = append(clusters[cluster][genome], gene)
	}
	return clusters, rows.Err()
}
