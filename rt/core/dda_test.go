package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDDAStraightLine(t *testing.T) {
	aabb := AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4})
	ray := NewRay(mgl32.Vec3{0.5, 0.5, 0.001}, mgl32.Vec3{0, 0, 1})

	dda := BeginDDA(ray, aabb, [3]int{4, 4, 4})
	var visited [][3]int
	for dda.InBounds() {
		visited = append(visited, dda.CurrGrid)
		dda.Step()
	}

	want := [][3]int{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {0, 0, 3}}
	if len(visited) != len(want) {
		t.Fatalf("Visited %d cells, want %d: %v", len(visited), len(want), visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("Cell %d: got %v, want %v", i, visited[i], want[i])
		}
	}
}

func TestDDADiagonalTie(t *testing.T) {
	aabb := AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4})
	// Perfect diagonal in xy starting at a cell corner: x and y boundary
	// times tie on every step and must advance together.
	ray := NewRay(mgl32.Vec3{0, 0, 0.5}, mgl32.Vec3{1, 1, 0}.Normalize())

	dda := BeginDDA(ray, aabb, [3]int{4, 4, 4})
	prev := dda.CurrGrid
	dda.Step()
	for dda.InBounds() {
		curr := dda.CurrGrid
		if curr[0]-prev[0] != 1 || curr[1]-prev[1] != 1 || curr[2] != prev[2] {
			t.Fatalf("Tied diagonal step went %v -> %v", prev, curr)
		}
		prev = curr
		dda.Step()
	}
}

func TestDDAMonotonicT(t *testing.T) {
	aabb := AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{8, 8, 8})
	ray := NewRay(mgl32.Vec3{0.1, 0.2, 0.3}, mgl32.Vec3{1, 0.7, 0.3}.Normalize())

	dda := BeginDDA(ray, aabb, [3]int{8, 8, 8})
	last := float32(0)
	for dda.InBounds() {
		dda.Step()
		if dda.EnterT < last {
			t.Fatalf("Step t went backwards: %f after %f", dda.EnterT, last)
		}
		last = dda.EnterT
	}
}

func TestDDAZeroAxisNeverSteps(t *testing.T) {
	aabb := AABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4})
	ray := NewRay(mgl32.Vec3{0.5, 2.5, 0.5}, mgl32.Vec3{1, 0, 0})

	dda := BeginDDA(ray, aabb, [3]int{4, 4, 4})
	for dda.InBounds() {
		if dda.CurrGrid[1] != 2 || dda.CurrGrid[2] != 0 {
			t.Fatalf("Zero-direction axis moved: %v", dda.CurrGrid)
		}
		dda.Step()
	}
}
