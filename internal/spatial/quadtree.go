package spatial

import "github.com/mtmitchel/LONewDesign-sub007/internal/geom"

// Quadtree defaults.
const (
	DefaultQuadCapacity = 8
	DefaultQuadMaxDepth = 8
)

type quadItem[T comparable] struct {
	item   T
	bounds geom.Rect
}

type quadNode[T comparable] struct {
	bounds   geom.Rect
	depth    int
	items    []quadItem[T]
	children *[4]*quadNode[T]
}

// Quadtree indexes items by bounding box. An item is stored exactly once: it
// moves into a child only when the child fully contains it, otherwise it stays
// at the node where it straddles the split lines.
type Quadtree[T comparable] struct {
	root     *quadNode[T]
	capacity int
	maxDepth int

	// where each item lives; items outside the root bounds sit in overflow
	locate   map[T]*quadNode[T]
	overflow map[T]geom.Rect
}

// NewQuadtree creates a tree covering bounds. Non-positive capacity or depth
// fall back to the defaults.
func NewQuadtree[T comparable](bounds geom.Rect, capacity, maxDepth int) *Quadtree[T] {
	if capacity <= 0 {
		capacity = DefaultQuadCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultQuadMaxDepth
	}
	return &Quadtree[T]{
		root:     &quadNode[T]{bounds: bounds},
		capacity: capacity,
		maxDepth: maxDepth,
		locate:   make(map[T]*quadNode[T]),
		overflow: make(map[T]geom.Rect),
	}
}

// Bounds returns the area covered by the root node.
func (q *Quadtree[T]) Bounds() geom.Rect {
	return q.root.bounds
}

// Len returns the number of stored items.
func (q *Quadtree[T]) Len() int {
	return len(q.locate) + len(q.overflow)
}

// Clear removes every item.
func (q *Quadtree[T]) Clear() {
	q.root = &quadNode[T]{bounds: q.root.bounds}
	q.locate = make(map[T]*quadNode[T])
	q.overflow = make(map[T]geom.Rect)
}

// Insert stores item with bounds. Inserting an existing item updates it.
func (q *Quadtree[T]) Insert(item T, bounds geom.Rect) {
	if q.has(item) {
		q.Remove(item)
	}
	if !q.root.bounds.Intersects(bounds) {
		q.overflow[item] = bounds
		return
	}
	q.insert(q.root, quadItem[T]{item: item, bounds: bounds})
}

// Update re-indexes item under new bounds by removing and reinserting it.
func (q *Quadtree[T]) Update(item T, bounds geom.Rect) {
	q.Remove(item)
	q.Insert(item, bounds)
}

// Remove deletes item. It reports whether the item was present.
func (q *Quadtree[T]) Remove(item T) bool {
	if _, ok := q.overflow[item]; ok {
		delete(q.overflow, item)
		return true
	}
	n, ok := q.locate[item]
	if !ok {
		return false
	}
	for i := range n.items {
		if n.items[i].item == item {
			copy(n.items[i:], n.items[i+1:])
			n.items[len(n.items)-1] = quadItem[T]{}
			n.items = n.items[:len(n.items)-1]
			break
		}
	}
	delete(q.locate, item)
	return true
}

// BoundsOf returns the stored bounds of item.
func (q *Quadtree[T]) BoundsOf(item T) (geom.Rect, bool) {
	if b, ok := q.overflow[item]; ok {
		return b, true
	}
	n, ok := q.locate[item]
	if !ok {
		return geom.Rect{}, false
	}
	for _, it := range n.items {
		if it.item == item {
			return it.bounds, true
		}
	}
	return geom.Rect{}, false
}

// Query returns every item whose bounds intersect r. Each item appears once.
func (q *Quadtree[T]) Query(r geom.Rect) []T {
	var out []T
	q.query(q.root, r, &out)
	for item, b := range q.overflow {
		if b.Intersects(r) {
			out = append(out, item)
		}
	}
	return out
}

func (q *Quadtree[T]) has(item T) bool {
	if _, ok := q.locate[item]; ok {
		return true
	}
	_, ok := q.overflow[item]
	return ok
}

func (q *Quadtree[T]) insert(n *quadNode[T], it quadItem[T]) {
	for n.children != nil {
		child := n.childContaining(it.bounds)
		if child == nil {
			break
		}
		n = child
	}

	n.items = append(n.items, it)
	q.locate[it.item] = n

	if n.children == nil && len(n.items) > q.capacity && n.depth < q.maxDepth {
		q.split(n)
	}
}

func (q *Quadtree[T]) split(n *quadNode[T]) {
	hw := n.bounds.Width / 2
	hh := n.bounds.Height / 2
	x, y := n.bounds.X, n.bounds.Y
	n.children = &[4]*quadNode[T]{
		{bounds: geom.Rect{X: x, Y: y, Width: hw, Height: hh}, depth: n.depth + 1},
		{bounds: geom.Rect{X: x + hw, Y: y, Width: hw, Height: hh}, depth: n.depth + 1},
		{bounds: geom.Rect{X: x, Y: y + hh, Width: hw, Height: hh}, depth: n.depth + 1},
		{bounds: geom.Rect{X: x + hw, Y: y + hh, Width: hw, Height: hh}, depth: n.depth + 1},
	}

	items := n.items
	n.items = nil
	for _, it := range items {
		if child := n.childContaining(it.bounds); child != nil {
			q.insert(child, it)
			continue
		}
		n.items = append(n.items, it)
		q.locate[it.item] = n
	}
}

func (n *quadNode[T]) childContaining(b geom.Rect) *quadNode[T] {
	for _, child := range n.children {
		if child.bounds.ContainsRect(b) {
			return child
		}
	}
	return nil
}

// The root is always visited: items straddling its edge may reach past it.
func (q *Quadtree[T]) query(n *quadNode[T], r geom.Rect, out *[]T) {
	if n != q.root && !n.bounds.Intersects(r) {
		return
	}
	for _, it := range n.items {
		if it.bounds.Intersects(r) {
			*out = append(*out, it.item)
		}
	}
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		q.query(child, r, out)
	}
}
