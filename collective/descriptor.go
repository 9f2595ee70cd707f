package collective

import (
	"fmt"

	"github.com/sarchlab/clustersim/streaming"
	"github.com/sarchlab/clustersim/topology"
)

// Shape selects which concrete algorithm a Descriptor instantiates.
type Shape int

const (
	// RingShape drives Ring (and, for AllToAllComType, AllToAll).
	RingShape Shape = iota
	// TreeShape drives DoubleBinaryTree.
	TreeShape
)

// Descriptor is a value-typed collective spec: everything needed to build
// a bound Algorithm is captured here, separate from any particular
// Stream. Call Instantiate once a Stream exists to bind the two.
type Descriptor struct {
	Shape     Shape
	ComType   ComType
	Rank      int
	DataSize  int
	Direction topology.Direction
	Injection InjectionPolicy

	RingDim topology.RingDimension
	TreeDim topology.TreeDimension
}

// Instantiate builds the concrete Algorithm the Descriptor describes,
// bound into ctx. It does not call Init; the caller constructs the
// owning Stream with streaming.New(..., algo), which does.
func (d Descriptor) Instantiate(ctx Context) streaming.Algorithm {
	switch d.Shape {
	case RingShape:
		if d.ComType == AllToAllComType {
			return NewAllToAll(ctx, d.Rank, d.RingDim, d.Direction, d.DataSize, d.Injection)
		}
		return NewRing(ctx, d.ComType, d.Rank, d.RingDim, d.Direction, d.DataSize, d.Injection)
	case TreeShape:
		return NewDoubleBinaryTree(ctx, d.Rank, d.TreeDim, d.DataSize)
	default:
		panic(fmt.Sprintf("collective: unknown descriptor shape %d", d.Shape))
	}
}
