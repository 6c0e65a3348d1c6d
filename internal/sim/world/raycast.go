package world

import "voxelforge.dev/internal/sim/world/logic/mathx"

// RayHit describes the first solid voxel found by a raycast. Normal
// points back toward the voxel the ray exited to enter Voxel; it is
// zero (undefined) for immediate hits at the start position.
type RayHit struct {
	Voxel  Vec3i
	Pos    Vec3f
	Normal Vec3i
}

const rayEps = 1e-9

// rayAxes is the fixed face-test order: X, then Z, then Y.
var rayAxes = [3]int{0, 2, 1}

// Raycast walks the segment from->to voxel by voxel and returns the
// first non-empty voxel intersected. When the start voxel is already
// solid, or ignoreEmpty is set, it reports an immediate hit at from
// with an undefined normal. Voxels in non-resident chunks read as
// empty; a step to a voxel with any negative coordinate ends the walk
// with no hit. The walk never mutates world state.
func (w *World) Raycast(from, to Vec3f, ignoreEmpty bool) (RayHit, bool) {
	start := w.voxelOf(from)
	if ignoreEmpty || w.solidAt(start) {
		return RayHit{Voxel: start, Pos: from}, true
	}

	dest := w.voxelOf(to)
	dir := to.Sub(from)
	d := [3]float64{dir.X, dir.Y, dir.Z}
	dims := [3]float64{w.cfg.VoxelDims.X, w.cfg.VoxelDims.Y, w.cfg.VoxelDims.Z}

	cur := start
	pos := from
	// The per-face stepping below cannot wander: a step always crosses
	// a face in the direction of travel. The cap catches the same
	// degenerate geometry as the no-face abort.
	maxSteps := mathx.AbsInt(dest.X-start.X) + mathx.AbsInt(dest.Y-start.Y) + mathx.AbsInt(dest.Z-start.Z) + 3

	for steps := 0; cur != dest; steps++ {
		if steps == maxSteps {
			w.abortWalk(from, to, cur)
			return RayHit{}, false
		}

		c := [3]int{cur.X, cur.Y, cur.Z}
		p := [3]float64{pos.X, pos.Y, pos.Z}
		var lo, hi [3]float64
		for a := 0; a < 3; a++ {
			lo[a] = float64(c[a]) * dims[a]
			hi[a] = lo[a] + dims[a]
			// Clamp into the current voxel's bounds before projecting
			// out through a face.
			if p[a] < lo[a] {
				p[a] = lo[a]
			} else if p[a] > hi[a] {
				p[a] = hi[a]
			}
		}

		// Only faces whose outward direction agrees with the travel
		// direction can be exits: at most one per axis, tried in the
		// fixed X, Z, Y order.
		stepped := false
		for _, a := range rayAxes {
			if d[a] == 0 {
				continue
			}
			plane := hi[a]
			step := 1
			if d[a] < 0 {
				plane = lo[a]
				step = -1
			}
			t := (plane - p[a]) / d[a]
			if t < 0 {
				continue
			}
			var q [3]float64
			inQuad := true
			for b := 0; b < 3; b++ {
				q[b] = p[b] + d[b]*t
				if b == a {
					continue
				}
				if q[b] < lo[b]-rayEps || q[b] > hi[b]+rayEps {
					inQuad = false
					break
				}
			}
			if !inQuad {
				continue
			}

			next := cur
			var normal Vec3i
			switch a {
			case 0:
				next.X += step
				normal = Vec3i{X: -step}
			case 1:
				next.Y += step
				normal = Vec3i{Y: -step}
			default:
				next.Z += step
				normal = Vec3i{Z: -step}
			}
			if next.X < 0 || next.Y < 0 || next.Z < 0 {
				return RayHit{}, false
			}
			exit := Vec3f{X: q[0], Y: q[1], Z: q[2]}
			if w.solidAt(next) {
				return RayHit{Voxel: next, Pos: exit, Normal: normal}, true
			}
			cur = next
			pos = exit
			stepped = true
			break
		}
		if !stepped {
			// Geometrically unreachable; preserved as a reported,
			// non-fatal abort.
			w.abortWalk(from, to, cur)
			return RayHit{}, false
		}
	}
	return RayHit{}, false
}

func (w *World) abortWalk(from, to Vec3f, cur Vec3i) {
	w.counters.RaycastAborts++
	w.logf("raycast %v -> %v: no exit face at voxel %v, walk aborted",
		from.ToArray(), to.ToArray(), cur.ToArray())
}
