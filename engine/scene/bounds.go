package scene

import "github.com/Carmen-Shannon/oxy-shot/common"

// NodePredicate selects which nodes contribute to world bounds.
type NodePredicate func(n Node) bool

// VisibleAndEnabled accepts nodes whose own visibility flag is set and that are
// enabled along their whole ancestor chain.
func VisibleAndEnabled(n Node) bool {
	return n.Visible() && n.IsEnabled()
}

// WorldExtends computes the world-space axis-aligned bounds of every mesh in the given
// nodes and their descendants that passes the predicate. A nil predicate accepts every node.
// Returns an empty box when nothing contributes.
//
// Parameters:
//   - nodes: hierarchy roots to measure
//   - predicate: node filter
//
// Returns:
//   - common.BoundingBox: the world bounds, IsEmpty() when no mesh qualified
func WorldExtends(nodes []Node, predicate NodePredicate) common.BoundingBox {
	box := common.BoundingBox{}
	seen := make(map[uint64]struct{})
	for _, root := range nodes {
		if root == nil {
			continue
		}
		for _, n := range append([]Node{root}, root.Descendants()...) {
			if _, ok := seen[n.ID()]; ok {
				continue
			}
			seen[n.ID()] = struct{}{}

			mesh := n.Mesh()
			if mesh == nil || mesh.Bounds.IsEmpty() {
				continue
			}
			if predicate != nil && !predicate(n) {
				continue
			}
			world := n.WorldMatrix()
			box = box.Union(mesh.Bounds.Transform(world[:]))
		}
	}
	return box
}
