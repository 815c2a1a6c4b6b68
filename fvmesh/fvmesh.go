package fvmesh

import "fmt"

// Connection is one internal face of the mesh, joining an owner cell to its
// neighbour. Owner < Neighbour in the canonical ordering.
type Connection struct {
	Owner, Neighbour int
}

type PatchType uint

const (
	WALL PatchType = iota
	INLET
	OUTLET
	SYMMETRY
)

var PatchPrintNames = []string{"Wall", "Inlet", "Outlet", "Symmetry"}

func (pt PatchType) Print() (txt string) {
	txt = PatchPrintNames[pt]
	return
}

// BoundaryFace addresses one boundary face: the interior cell it touches,
// the face area, the cell-center to face-center distance and the outward
// unit normal.
type BoundaryFace struct {
	Cell     int
	Area     float64
	Distance float64
	Normal   [3]float64
}

type Patch struct {
	Name  string
	Type  PatchType
	Faces []BoundaryFace
}

// Mesh is the partition-local unstructured finite volume mesh this core
// operates on. Connectivity, areas and volumes are fixed for the lifetime of
// any model constructed on it. Halo synchronization across partitions is the
// owning collaborator's job and must complete before neighbour values are
// read here.
type Mesh struct {
	NCells      int
	Connections []Connection
	FaceArea    []float64    // per internal connection
	FaceDist    []float64    // cell-center to cell-center distance, per connection
	FaceNormal  [][3]float64 // unit normal owner -> neighbour, per connection
	Volumes     []float64    // per cell
	Patches     []Patch

	wallDist        []float64
	wallDistUpdater func(m *Mesh, d []float64)
}

func (m *Mesh) NConnections() int {
	return len(m.Connections)
}

// SetWallDistUpdater installs the collaborator hook that recomputes wall
// distance. The core triggers the update, it never computes distances itself.
func (m *Mesh) SetWallDistUpdater(f func(m *Mesh, d []float64)) {
	m.wallDistUpdater = f
}

// UpdateWallDist refreshes the wall distance field through the installed
// collaborator hook, if any.
func (m *Mesh) UpdateWallDist() {
	if m.wallDistUpdater != nil {
		m.wallDistUpdater(m, m.wallDist)
	}
}

func (m *Mesh) WallDist() []float64 {
	return m.wallDist
}

func (m *Mesh) Patch(name string) (p *Patch, err error) {
	for i := range m.Patches {
		if m.Patches[i].Name == name {
			p = &m.Patches[i]
			return
		}
	}
	err = fmt.Errorf("no patch named %s in mesh", name)
	return
}

// NewChannel builds a uniform 1D channel mesh of nCells cells over [0,length]
// with wall patches on both ends. Used by tests and the demo command; real
// cases receive their mesh from the surrounding solver.
func NewChannel(nCells int, length float64) (m *Mesh) {
	if nCells < 1 {
		panic(fmt.Errorf("channel mesh needs at least one cell, have %d", nCells))
	}
	var (
		dx    = length / float64(nCells)
		nConn = nCells - 1
	)
	m = &Mesh{
		NCells:      nCells,
		Connections: make([]Connection, nConn),
		FaceArea:    make([]float64, nConn),
		FaceDist:    make([]float64, nConn),
		FaceNormal:  make([][3]float64, nConn),
		Volumes:     make([]float64, nCells),
		wallDist:    make([]float64, nCells),
	}
	for i := 0; i < nConn; i++ {
		m.Connections[i] = Connection{Owner: i, Neighbour: i + 1}
		m.FaceArea[i] = 1.
		m.FaceDist[i] = dx
		m.FaceNormal[i] = [3]float64{1, 0, 0}
	}
	for k := 0; k < nCells; k++ {
		m.Volumes[k] = dx
	}
	m.Patches = []Patch{
		{Name: "lowerWall", Type: WALL,
			Faces: []BoundaryFace{{Cell: 0, Area: 1., Distance: dx / 2,
				Normal: [3]float64{-1, 0, 0}}}},
		{Name: "upperWall", Type: WALL,
			Faces: []BoundaryFace{{Cell: nCells - 1, Area: 1., Distance: dx / 2,
				Normal: [3]float64{1, 0, 0}}}},
	}
	// Default wall distance for a channel: distance to the nearest end wall
	m.SetWallDistUpdater(func(mm *Mesh, d []float64) {
		for k := 0; k < mm.NCells; k++ {
			xc := (float64(k) + 0.5) * dx
			if xc > length-xc {
				d[k] = length - xc
			} else {
				d[k] = xc
			}
		}
	})
	m.UpdateWallDist()
	return
}
