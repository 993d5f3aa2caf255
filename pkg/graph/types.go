package graph

// Kind tags a node with the entity it was created from.
type Kind string

const (
	KindNode      Kind = "node"
	KindProvider  Kind = "provider"
	KindPhysician Kind = "physician"
	KindPatient   Kind = "patient"
	KindClaim     Kind = "claim"
)

// Node is a graph vertex. ID is dense and assigned in insertion order.
type Node struct {
	ID       int64     `json:"id"`
	Key      string    `json:"key"`
	Kind     Kind      `json:"kind"`
	Features []float64 `json:"features,omitempty"`
}

// Edge is an undirected pair of node keys.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
