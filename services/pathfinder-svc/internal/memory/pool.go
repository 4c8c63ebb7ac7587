package memory

// NoParent marks a node without a predecessor.
const NoParent = -1

// Record is the per-node search state kept by a Pool.
type Record struct {
	Distance float64
	Parent   int
	Visited  bool
}

// =============================================================================
// Pool
// =============================================================================

// Pool stores distance, parent and visited flags for every node of a node-space.
//
// All three fields share one stamp. Writing any field of a stale slot first
// resets the other two to their defaults, so a freshly initialized pool
// behaves as if every record held the defaults.
type Pool struct {
	records Versioned[Record]
}

// NewPool creates an empty pool. Initialize must be called before use.
func NewPool() *Pool {
	return &Pool{}
}

// Initialize starts a new search over size nodes and returns the new epoch.
//
// Reusing the previous size costs O(1). A different size reallocates the
// backing storage. Initialize panics if size is not positive.
func (p *Pool) Initialize(size int, defaultDistance float64, defaultParent int, defaultVisited bool) uint32 {
	return p.records.Reset(size, Record{
		Distance: defaultDistance,
		Parent:   defaultParent,
		Visited:  defaultVisited,
	})
}

// Distance returns the tentative distance of id.
func (p *Pool) Distance(id int) float64 {
	return p.records.Get(id).Distance
}

// Parent returns the predecessor of id.
func (p *Pool) Parent(id int) int {
	return p.records.Get(id).Parent
}

// Visited reports whether id has been settled.
func (p *Pool) Visited(id int) bool {
	return p.records.Get(id).Visited
}

// Record returns the full state of id.
func (p *Pool) Record(id int) Record {
	return p.records.Get(id)
}

// SetDistance writes the tentative distance of id.
func (p *Pool) SetDistance(id int, d float64) {
	p.records.Touch(id).Distance = d
}

// SetParent writes the predecessor of id.
func (p *Pool) SetParent(id, parent int) {
	p.records.Touch(id).Parent = parent
}

// SetVisited writes the settled flag of id.
func (p *Pool) SetVisited(id int, visited bool) {
	p.records.Touch(id).Visited = visited
}

// Touched reports whether id was written during the current search.
func (p *Pool) Touched(id int) bool {
	return p.records.Written(id)
}

// Size returns the node-space size the pool was last initialized with.
func (p *Pool) Size() int {
	return p.records.Len()
}

// Epoch returns the current epoch.
func (p *Pool) Epoch() uint32 {
	return p.records.Epoch()
}

// =============================================================================
// Context
// =============================================================================

// Context is a detached capture of a Pool's backing storage and epoch.
//
// Capturing and restoring a context copies slice headers only.
type Context struct {
	records Versioned[Record]
}

// Size returns the node-space size held by the context.
func (c Context) Size() int {
	return c.records.Len()
}

// SaveContext detaches the pool's current state and leaves the pool empty.
//
// The next Initialize on the pool allocates fresh storage unless another
// context is loaded first, so a nested search can never overwrite the saved
// state.
func (p *Pool) SaveContext() Context {
	ctx := Context{records: p.records}
	p.records = Versioned[Record]{}
	return ctx
}

// LoadContext replaces the pool's state with a previously saved context.
// Any state the pool held before is dropped.
func (p *Pool) LoadContext(ctx Context) {
	p.records = ctx.records
}
