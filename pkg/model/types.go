package model

type RunProperty struct {
	RunID         string   `json:"run_id"`
	StartedAt     string   `json:"started_at"`
	K             int      `json:"k"`
	Inserted      int      `json:"inserted"`
	Clusters      int      `json:"clusters"`
	DistinctKmers int      `json:"distinct_kmers"`
	Inputs        []string `json:"inputs"`
}

// Sub struct, embed
type ClusterProperty struct {
	RunID          string `json:"run_id"`
	ClusterID      int    `json:"cluster_id"`
	Representative string `json:"representative"`
	MemberCount    int    `json:"member_count"`
}

type Cluster struct {
	ClusterProperty ClusterProperty `json:"cluster_properties"`
	// Only filled for runs stored in debug mode.
	Members []string `json:"members,omitempty"`
}

// Return from query
type clusterQuery struct {
	ClusterProperty ClusterProperty
	seq_no          *int
	kmer            *string
}
