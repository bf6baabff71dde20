package gpu

import (
	"polybatch/cellmap"
	"polybatch/polydata"
)

// The appenders below produce the index data of one mesh. Each cell yields
// exactly the primitives that cellmap counts for it, in the same order, so
// gl_PrimitiveID minus the block offset indexes the cell map.

// AppendPointIndices emits one point per connectivity id.
func AppendPointIndices(dst []uint32, cells *polydata.CellArray, vertexOffset int) []uint32 {
	cells.Each(func(_ int, pts []int) {
		for _, p := range pts {
			dst = append(dst, uint32(p+vertexOffset))
		}
	})
	return dst
}

// AppendLineIndices emits one segment per consecutive point pair.
func AppendLineIndices(dst []uint32, cells *polydata.CellArray, vertexOffset int) []uint32 {
	cells.Each(func(_ int, pts []int) {
		for j := 0; j+1 < len(pts); j++ {
			dst = append(dst, uint32(pts[j]+vertexOffset), uint32(pts[j+1]+vertexOffset))
		}
	})
	return dst
}

// AppendTriangleIndices fan triangulates polygons, skipping triangles with
// coincident corners.
func AppendTriangleIndices(dst []uint32, cells *polydata.CellArray, points *polydata.Points, vertexOffset int) []uint32 {
	cells.Each(func(_ int, pts []int) {
		for i := 2; i < len(pts); i++ {
			if points.DegenerateTriangle(pts[0], pts[i-1], pts[i]) {
				continue
			}
			dst = append(dst,
				uint32(pts[0]+vertexOffset),
				uint32(pts[i-1]+vertexOffset),
				uint32(pts[i]+vertexOffset))
		}
	})
	return dst
}

// AppendTriangleEdgeValues emits one value per triangle produced by
// AppendTriangleIndices. Bit 0 marks edge (0,1) as a polygon edge, bit 1
// edge (1,2) and bit 2 edge (2,0). Edge flags, when given, clear the bits
// of hidden edges.
func AppendTriangleEdgeValues(dst []float32, cells *polydata.CellArray, points *polydata.Points, edgeFlags *polydata.ByteArray) []float32 {
	visible := func(p int) bool {
		return edgeFlags == nil || edgeFlags.Values[p] != 0
	}
	cells.Each(func(_ int, pts []int) {
		n := len(pts)
		for i := 2; i < n; i++ {
			if points.DegenerateTriangle(pts[0], pts[i-1], pts[i]) {
				continue
			}
			v := 0
			if i == 2 && visible(pts[0]) {
				v |= 1
			}
			if visible(pts[i-1]) {
				v |= 2
			}
			if i == n-1 && visible(pts[i]) {
				v |= 4
			}
			dst = append(dst, float32(v))
		}
	})
	return dst
}

// AppendTriangleLineIndices emits the closed outline of every polygon.
func AppendTriangleLineIndices(dst []uint32, cells *polydata.CellArray, vertexOffset int) []uint32 {
	cells.Each(func(_ int, pts []int) {
		n := len(pts)
		for i := 0; i < n; i++ {
			dst = append(dst, uint32(pts[i]+vertexOffset), uint32(pts[(i+1)%n]+vertexOffset))
		}
	})
	return dst
}

// AppendEdgeFlagIndices is AppendTriangleLineIndices honoring per-point
// edge flags: the edge leaving a point whose flag is zero collapses to a
// zero length segment, keeping primitive ids aligned with the cell map.
func AppendEdgeFlagIndices(dst []uint32, cells *polydata.CellArray, edgeFlags *polydata.ByteArray, vertexOffset int) []uint32 {
	cells.Each(func(_ int, pts []int) {
		n := len(pts)
		for i := 0; i < n; i++ {
			a := uint32(pts[i] + vertexOffset)
			b := uint32(pts[(i+1)%n] + vertexOffset)
			if edgeFlags.Values[pts[i]] == 0 {
				b = a
			}
			dst = append(dst, a, b)
		}
	})
	return dst
}

// AppendStripIndices emits strips as triangles, or as the lines along and
// across the strip when wireframe is set.
func AppendStripIndices(dst []uint32, cells *polydata.CellArray, vertexOffset int, wireframe bool) []uint32 {
	cells.Each(func(_ int, pts []int) {
		if len(pts) < 2 {
			return
		}
		idx := func(j int) uint32 { return uint32(pts[j] + vertexOffset) }
		if wireframe {
			dst = append(dst, idx(0), idx(1))
			for j := 2; j < len(pts); j++ {
				dst = append(dst, idx(j-2), idx(j), idx(j-1), idx(j))
			}
			return
		}
		for j := 2; j < len(pts); j++ {
			if j%2 == 0 {
				dst = append(dst, idx(j-2), idx(j-1), idx(j))
			} else {
				dst = append(dst, idx(j-1), idx(j-2), idx(j))
			}
		}
	})
	return dst
}

// AppendVertexIndices emits every point used by any cell exactly once, in
// first use order.
func AppendVertexIndices(dst []uint32, cells [4]*polydata.CellArray, numPoints, vertexOffset int) []uint32 {
	used := make([]bool, numPoints)
	for _, ca := range cells {
		ca.Each(func(_ int, pts []int) {
			for _, p := range pts {
				if !used[p] {
					used[p] = true
					dst = append(dst, uint32(p+vertexOffset))
				}
			}
		})
	}
	return dst
}

// AppendCellIndices dispatches on primitive type and representation the way
// the mapper lays out the four cell index buffers.
func AppendCellIndices(dst []uint32, prim PrimitiveType, rep cellmap.Representation, mesh *polydata.Mesh, vertexOffset int, edgeFlags *polydata.ByteArray) []uint32 {
	cells := mesh.Cells()
	ca := cells[prim]
	switch {
	case prim == PrimitivePoints || rep == cellmap.Points:
		return AppendPointIndices(dst, ca, vertexOffset)
	case prim == PrimitiveLines:
		return AppendLineIndices(dst, ca, vertexOffset)
	case prim == PrimitiveTris && rep == cellmap.Wireframe:
		if edgeFlags != nil {
			return AppendEdgeFlagIndices(dst, ca, edgeFlags, vertexOffset)
		}
		return AppendTriangleLineIndices(dst, ca, vertexOffset)
	case prim == PrimitiveTris:
		return AppendTriangleIndices(dst, ca, mesh.Points, vertexOffset)
	default:
		return AppendStripIndices(dst, ca, vertexOffset, rep == cellmap.Wireframe)
	}
}
