package tree

// DefaultPoolSize is the number of nodes a NodePool preallocates when no
// size is given.
const DefaultPoolSize = 1 << 14

// NodePool recycles Nodes between tree builds. It is not safe for concurrent
// use; only the goroutine building a tree may touch it.
type NodePool struct {
	free      []*Node
	allocated int
}

// NewNodePool returns a pool holding n preallocated nodes.
func NewNodePool(n int) *NodePool {
	if n <= 0 {
		n = DefaultPoolSize
	}
	p := &NodePool{free: make([]*Node, 0, n)}
	p.grow(n)
	return p
}

// grow allocates n new nodes in a single block.
func (p *NodePool) grow(n int) {
	block := make([]Node, n)
	for i := range block {
		p.free = append(p.free, &block[i])
	}
	p.allocated += n
}

// Get returns an empty node. If the pool is exhausted, its size is doubled.
func (p *NodePool) Get() *Node {
	if len(p.free) == 0 {
		n := p.allocated
		if n == 0 {
			n = DefaultPoolSize
		}
		p.grow(n)
	}

	last := len(p.free) - 1
	n := p.free[last]
	p.free[last] = nil
	p.free = p.free[:last]
	return n
}

// Put resets n and returns it to the pool.
func (p *NodePool) Put(n *Node) {
	n.Reset()
	p.free = append(p.free, n)
}

// Free returns the number of nodes available without allocation.
func (p *NodePool) Free() int { return len(p.free) }

// Allocated returns the total number of nodes the pool has ever allocated.
func (p *NodePool) Allocated() int { return p.allocated }
