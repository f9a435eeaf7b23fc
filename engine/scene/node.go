package scene

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-shot/common"
)

// nodeCount generates unique node identifiers.
var nodeCount atomic.Uint64

type node struct {
	mu sync.RWMutex

	id   uint64
	name string

	parent   Node
	children []Node

	position [3]float32
	rotation [4]float32
	scaling  [3]float32

	// localMatrix overrides TRS when set (glTF nodes that carry a matrix)
	localMatrix *[16]float32

	visible bool
	enabled bool

	mesh *Mesh
}

// Node is a transform node in the scene graph. A node optionally carries a mesh;
// nodes without a mesh only group and transform their children.
type Node interface {
	// ID returns the node's unique identifier.
	ID() uint64

	// Name returns the node's name.
	Name() string

	// Parent returns the parent node, or nil for roots.
	Parent() Node

	// Children returns a copy of the direct children.
	Children() []Node

	// AddChild attaches a child, detaching it from its previous parent.
	//
	// Parameters:
	//   - child: the node to attach
	AddChild(child Node)

	// Descendants returns every node below this one in depth-first order.
	Descendants() []Node

	// Position returns the local translation.
	Position() [3]float32

	// SetPosition sets the local translation.
	SetPosition(p [3]float32)

	// Rotation returns the local rotation quaternion (x, y, z, w).
	Rotation() [4]float32

	// SetRotation sets the local rotation quaternion (x, y, z, w).
	SetRotation(q [4]float32)

	// Scaling returns the local scale.
	Scaling() [3]float32

	// SetScaling sets the local scale.
	SetScaling(s [3]float32)

	// SetLocalMatrix replaces TRS with an explicit local matrix; nil restores TRS.
	SetLocalMatrix(m *[16]float32)

	// LocalMatrix returns the column-major local transform.
	LocalMatrix() [16]float32

	// WorldMatrix returns the column-major transform from local to world space.
	//
	// Returns:
	//   - [16]float32: parent world × local
	WorldMatrix() [16]float32

	// Visible returns the node's own visibility flag. Visibility is not inherited.
	Visible() bool

	// SetVisible sets the node's visibility flag.
	SetVisible(visible bool)

	// Enabled returns the node's own enabled flag.
	Enabled() bool

	// SetEnabled sets the node's own enabled flag.
	SetEnabled(enabled bool)

	// IsEnabled reports whether the node and every ancestor are enabled.
	IsEnabled() bool

	// Mesh returns the node's mesh, or nil.
	Mesh() *Mesh

	// SetMesh assigns a mesh to the node.
	SetMesh(m *Mesh)

	// setParent records the parent without touching the parent's child list.
	setParent(parent Node)

	// removeChild drops a child from the child list without touching the child.
	removeChild(child Node)
}

var _ Node = &node{}

// NewNode creates a new visible, enabled transform node with identity TRS.
//
// Parameters:
//   - name: the node name
//   - options: functional options to configure the node
//
// Returns:
//   - Node: the newly created node
func NewNode(name string, options ...NodeBuilderOption) Node {
	n := &node{
		id:       nodeCount.Add(1),
		name:     name,
		rotation: [4]float32{0, 0, 0, 1},
		scaling:  [3]float32{1, 1, 1},
		visible:  true,
		enabled:  true,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *node) ID() uint64 {
	return n.id
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Parent() Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

func (n *node) Children() []Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Node(nil), n.children...)
}

func (n *node) AddChild(child Node) {
	if child == nil || child == Node(n) {
		return
	}
	if old := child.Parent(); old != nil {
		old.removeChild(child)
	}
	child.setParent(n)

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
}

func (n *node) setParent(parent Node) {
	n.mu.Lock()
	n.parent = parent
	n.mu.Unlock()
}

func (n *node) removeChild(child Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func (n *node) Descendants() []Node {
	var out []Node
	for _, c := range n.Children() {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

func (n *node) Position() [3]float32 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.position
}

func (n *node) SetPosition(p [3]float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.position = p
}

func (n *node) Rotation() [4]float32 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rotation
}

func (n *node) SetRotation(q [4]float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rotation = q
}

func (n *node) Scaling() [3]float32 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scaling
}

func (n *node) SetScaling(s [3]float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scaling = s
}

func (n *node) SetLocalMatrix(m *[16]float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if m == nil {
		n.localMatrix = nil
		return
	}
	cp := *m
	n.localMatrix = &cp
}

func (n *node) LocalMatrix() [16]float32 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.localMatrix != nil {
		return *n.localMatrix
	}
	var m [16]float32
	common.ComposeTRS(m[:], n.position, n.rotation, n.scaling)
	return m
}

func (n *node) WorldMatrix() [16]float32 {
	local := n.LocalMatrix()
	parent := n.Parent()
	if parent == nil {
		return local
	}
	pw := parent.WorldMatrix()
	var out [16]float32
	common.Mul4(out[:], pw[:], local[:])
	return out
}

func (n *node) Visible() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.visible
}

func (n *node) SetVisible(visible bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visible = visible
}

func (n *node) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

func (n *node) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

func (n *node) IsEnabled() bool {
	if !n.Enabled() {
		return false
	}
	if parent := n.Parent(); parent != nil {
		return parent.IsEnabled()
	}
	return true
}

func (n *node) Mesh() *Mesh {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.mesh
}

func (n *node) SetMesh(m *Mesh) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mesh = m
}

// NodeBuilderOption is a functional option for configuring a Node via NewNode.
type NodeBuilderOption func(*node)

// WithPosition sets the initial local translation.
func WithPosition(p [3]float32) NodeBuilderOption {
	return func(n *node) {
		n.position = p
	}
}

// WithRotation sets the initial local rotation quaternion (x, y, z, w).
func WithRotation(q [4]float32) NodeBuilderOption {
	return func(n *node) {
		n.rotation = q
	}
}

// WithScaling sets the initial local scale.
func WithScaling(s [3]float32) NodeBuilderOption {
	return func(n *node) {
		n.scaling = s
	}
}

// WithLocalMatrix sets an explicit local matrix that overrides TRS.
func WithLocalMatrix(m [16]float32) NodeBuilderOption {
	return func(n *node) {
		n.localMatrix = &m
	}
}

// WithMesh assigns a mesh to the node.
func WithMesh(m *Mesh) NodeBuilderOption {
	return func(n *node) {
		n.mesh = m
	}
}
