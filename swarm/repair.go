package swarm

import (
	"fmt"

	"github.com/rwcarlsen/cpso"
)

// Repairer pulls a moved particle back inside the search space.
type Repairer interface {
	// Repair modifies pos (and vel as the policy requires) so that pos lies
	// within space.  It returns the number of coordinates it had to move.
	Repair(space cpso.Space, pos, vel []float64) int
}

type RepairFunc func(space cpso.Space, pos, vel []float64) int

func (fn RepairFunc) Repair(space cpso.Space, pos, vel []float64) int { return fn(space, pos, vel) }

var (
	// ClampZero clamps out of bounds coordinates to the nearest bound and
	// zeroes the matching velocity component so the particle does not keep
	// pushing into the wall.
	ClampZero Repairer = RepairFunc(clampZero)
	// Clamp clamps out of bounds coordinates and keeps the velocity.
	Clamp Repairer = RepairFunc(clamp)
	// Reflect mirrors out of bounds coordinates across the violated bound
	// and reverses the matching velocity component.  Coordinates that
	// overshoot the whole span are clamped.
	Reflect Repairer = RepairFunc(reflect)
)

// Repair policy names accepted by RepairPolicy.
const (
	PolicyClampZero = "clamp-zero"
	PolicyClamp     = "clamp"
	PolicyReflect   = "reflect"
)

// RepairPolicy looks up a Repairer by name.
func RepairPolicy(name string) (Repairer, error) {
	switch name {
	case PolicyClampZero, "":
		return ClampZero, nil
	case PolicyClamp:
		return Clamp, nil
	case PolicyReflect:
		return Reflect, nil
	}
	return nil, &cpso.ConfigError{Field: "repair policy", Msg: fmt.Sprintf("unknown policy %q", name)}
}

func clampZero(space cpso.Space, pos, vel []float64) int {
	n := 0
	for i, x := range pos {
		if x < space.Lo(i) {
			pos[i], vel[i] = space.Lo(i), 0
			n++
		} else if x > space.Up(i) {
			pos[i], vel[i] = space.Up(i), 0
			n++
		}
	}
	return n
}

func clamp(space cpso.Space, pos, vel []float64) int {
	return clampPos(space, pos)
}

func clampPos(space cpso.Space, pos []float64) int {
	n := 0
	for i, x := range pos {
		if x < space.Lo(i) {
			pos[i] = space.Lo(i)
			n++
		} else if x > space.Up(i) {
			pos[i] = space.Up(i)
			n++
		}
	}
	return n
}

func reflect(space cpso.Space, pos, vel []float64) int {
	n := 0
	for i, x := range pos {
		lo, up := space.Lo(i), space.Up(i)
		switch {
		case x < lo:
			x = 2*lo - x
		case x > up:
			x = 2*up - x
		default:
			continue
		}
		n++
		vel[i] = -vel[i]
		pos[i] = min(max(x, lo), up)
	}
	return n
}
