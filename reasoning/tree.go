package reasoning

// NodeID indexes a node inside its Tree.
type NodeID int

// NoParent marks the root.
const NoParent NodeID = -1

// Node is one reasoning step. Content, Role and Parent never change after the node
// is created, which is what keeps the cached history valid.
type Node struct {
	ID         NodeID
	Content    string
	Role       Role
	Parent     NodeID
	Children   []NodeID
	Depth      int
	Value      float64
	TotalValue float64

	history []Message
}

// Tree owns every node of one search invocation. Nodes reference each other by index.
type Tree struct {
	nodes []*Node
}

func NewTree(question string, seed float64) *Tree {
	root := &Node{
		ID:         0,
		Content:    question,
		Role:       RoleUser,
		Parent:     NoParent,
		Depth:      0,
		Value:      seed,
		TotalValue: seed,
	}
	return &Tree{nodes: []*Node{root}}
}

func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Node returns nil for an id that does not belong to this tree.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// AddChild attaches a new assistant step under parent and returns it.
func (t *Tree) AddChild(parent NodeID, content string, value float64) *Node {
	p := t.Node(parent)
	if p == nil {
		return nil
	}
	child := &Node{
		ID:         NodeID(len(t.nodes)),
		Content:    content,
		Role:       RoleAssistant,
		Parent:     parent,
		Depth:      p.Depth + 1,
		Value:      value,
		TotalValue: value + p.TotalValue,
	}
	t.nodes = append(t.nodes, child)
	p.Children = append(p.Children, child.ID)
	return child
}

// History returns the root-to-node transcript. The result is a copy; the cached
// transcript itself is never handed out.
func (t *Tree) History(id NodeID) []Message {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	if n.history == nil {
		var rev []Message
		for cur := n; cur != nil; cur = t.Node(cur.Parent) {
			rev = append(rev, Message{Role: cur.Role, Content: cur.Content})
		}
		hist := make([]Message, len(rev))
		for i, m := range rev {
			hist[len(rev)-1-i] = m
		}
		n.history = hist
	}
	return CloneMessages(n.history)
}
