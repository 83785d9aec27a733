package openlr

// PathSegment is a node of a search frontier. Segments reference their predecessor by arena index
type PathSegment struct {
	Vertex VertexID
	// Virtual marks a point inside an edge not anchored to any graph vertex yet
	Virtual bool
	// Weight is cumulative weight from the root
	Weight float64
	// Edge leads from the predecessor to Vertex. Zero value for roots
	Edge Edge
	// From is arena index of the predecessor, -1 for roots
	From int
}

// PathArena owns path segments of a single search
type PathArena struct {
	segments []PathSegment
}

// Root adds root segment at given vertex
func (arena *PathArena) Root(vertex VertexID) int {
	arena.segments = append(arena.segments, PathSegment{Vertex: vertex, From: -1})
	return len(arena.segments) - 1
}

// VirtualRoot adds root segment which is not anchored to any vertex
func (arena *PathArena) VirtualRoot() int {
	arena.segments = append(arena.segments, PathSegment{Virtual: true, From: -1})
	return len(arena.segments) - 1
}

// Extend adds segment reaching vertex from segment `from` through given edge
func (arena *PathArena) Extend(from int, vertex VertexID, weight float64, edge Edge) int {
	arena.segments = append(arena.segments, PathSegment{
		Vertex: vertex,
		Weight: weight,
		Edge:   edge,
		From:   from,
	})
	return len(arena.segments) - 1
}

// ExtendVirtual adds virtual segment reached from segment `from` through given edge
func (arena *PathArena) ExtendVirtual(from int, weight float64, edge Edge) int {
	idx := arena.Extend(from, 0, weight, edge)
	arena.segments[idx].Virtual = true
	return idx
}

// Get returns segment by its arena index
func (arena *PathArena) Get(idx int) PathSegment {
	return arena.segments[idx]
}

// Path unwinds predecessor chain of given segment. Result is root-first
func (arena *PathArena) Path(idx int) SegmentPath {
	n := 0
	for i := idx; i >= 0; i = arena.segments[i].From {
		n++
	}
	path := make(SegmentPath, n)
	for i := idx; i >= 0; i = arena.segments[i].From {
		n--
		path[n] = arena.segments[i]
	}
	return path
}

// SegmentPath is an unwound root-first chain of path segments
type SegmentPath []PathSegment

// Last returns the final segment
func (path SegmentPath) Last() PathSegment {
	return path[len(path)-1]
}

// Vertices returns vertices of the path. Virtual segments are skipped
func (path SegmentPath) Vertices() []VertexID {
	vertices := make([]VertexID, 0, len(path))
	for _, segment := range path {
		if segment.Virtual {
			continue
		}
		vertices = append(vertices, segment.Vertex)
	}
	return vertices
}

// Edges returns edges of the path, one per non-root segment
func (path SegmentPath) Edges() []Edge {
	if len(path) < 2 {
		return nil
	}
	edges := make([]Edge, 0, len(path)-1)
	for _, segment := range path[1:] {
		edges = append(edges, segment.Edge)
	}
	return edges
}

// Contains reports whether path passes given (non-virtual) vertex
func (path SegmentPath) Contains(vertex VertexID) bool {
	for _, segment := range path {
		if !segment.Virtual && segment.Vertex == vertex {
			return true
		}
	}
	return false
}
