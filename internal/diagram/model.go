package diagram

// NodeKind classifies a diagram node by its workflow node kind.
type NodeKind string

const (
	NodeKindStart  NodeKind = "start"
	NodeKindAgent  NodeKind = "agent"
	NodeKindTool   NodeKind = "tool"
	NodeKindFinish NodeKind = "finish"
	NodeKindOther  NodeKind = "other"
)

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title    string
	Subtitle string
	Nodes    []*Node
	Edges    []Edge
	// Levels lists node IDs per layer of the graph with loop back-edges removed.
	Levels       [][]string
	Loops        []*LoopCluster
	CriticalPath []string
}

// Node represents a single workflow node in the diagram.
type Node struct {
	ID       string
	Label    string
	Kind     NodeKind
	Cost     *CostOverlay
	Critical bool
	LoopID   int // -1 when the node is not in a loop
}

// CostOverlay carries the estimated figures for a node.
type CostOverlay struct {
	Cost     float64
	Latency  float64
	Tokens   int
	Severity string // high | medium | low
}

// LoopCluster groups the members of one cycle.
type LoopCluster struct {
	ID            int
	NodeIDs       []string
	MaxIterations int
	Risk          string
}

// Edge represents a connection between two nodes.
type Edge struct {
	From     string
	To       string
	Label    string
	Back     bool // closes a loop
	Critical bool // on the critical path
}

func (m *DiagramModel) node(id string) *Node {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
