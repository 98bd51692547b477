// Package physics implements the soft-sphere integrator of the simulator.
//
// Particles live in the periodic unit cube [0,1)³. Each step:
//
//   - [SoftSphere.Repel]: every overlapping pair receives equal and opposite
//     impulses along the minimum-image separation, so the pass conserves
//     momentum exactly (up to float rounding).
//   - [SoftSphere.Advance]: velocities are damped with
//     Damping^(dt·[ReferenceFPS]), optionally clamped by [SpeedClamp],
//     integrated into positions and wrapped back into the cube.
//
// The pair pass is O(N²). There is no spatial index.
package physics
