package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), v1.Add(v2))
	assert.Equal(t, NewVec3(3, 3, 3), v2.Sub(v1))
	assert.Equal(t, NewVec3(2, 4, 6), v1.Mul(2))
	// 1*4 + 2*5 + 3*6
	assert.Equal(t, float32(32), v1.Dot(v2))
	assert.Equal(t, NewVec3(0, 0, 1), NewVec3(1, 0, 0).Cross(Vec3Up))
}

func TestVec3Normalize(t *testing.T) {
	n := NewVec3(3, 0, 0).Normalize()
	assert.Equal(t, NewVec3(1, 0, 0), n)
	assert.InDelta(t, 1, n.Length(), 1e-4)

	// zero vectors are returned unchanged
	assert.Equal(t, Vec3Zero, Vec3Zero.Normalize())
}

func TestVec3Component(t *testing.T) {
	v := NewVec3(7, 8, 9)
	assert.Equal(t, float32(7), v.Component(0))
	assert.Equal(t, float32(8), v.Component(1))
	assert.Equal(t, float32(9), v.Component(2))
	assert.Equal(t, [3]float32{7, 8, 9}, v.Array())
}

func TestAABB(t *testing.T) {
	box := EmptyAABB()
	assert.False(t, box.IsValid())
	assert.Equal(t, float32(0), box.Diagonal())

	box = NewAABB([]Vec3{{-1, 0, 2}, {3, 4, -2}})
	assert.True(t, box.IsValid())
	assert.Equal(t, NewVec3(-1, 0, -2), box.Min)
	assert.Equal(t, NewVec3(3, 4, 2), box.Max)
	assert.Equal(t, NewVec3(1, 2, 0), box.Center())
	assert.Equal(t, NewVec3(4, 4, 4), box.Size())

	other := NewAABB([]Vec3{{10, 10, 10}})
	u := box.Union(other)
	assert.Equal(t, NewVec3(10, 10, 10), u.Max)
	assert.Equal(t, box.Min, u.Min)

	// invalid operands are ignored
	assert.Equal(t, box, box.Union(EmptyAABB()))
	assert.Equal(t, box, EmptyAABB().Union(box))
}

func BenchmarkVec3Add(b *testing.B) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	for i := 0; i < b.N; i++ {
		_ = v1.Add(v2)
	}
}
