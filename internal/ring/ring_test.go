package ring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuffer_PushEvictsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 3; i++ {
		_, evicted := b.Push(i)
		assert.False(t, evicted)
	}

	old, evicted := b.Push(4)
	require.True(t, evicted)
	assert.Equal(t, 1, old)
	assert.Equal(t, []int{2, 3, 4}, b.Items())

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, 4, last)
}

func TestBuffer_Resize(t *testing.T) {
	b := New[string](4)
	for _, s := range []string{"a", "b", "c", "d"} {
		b.Push(s)
	}
	b.Resize(2)
	assert.Equal(t, 2, b.Cap())
	assert.Equal(t, []string{"c", "d"}, b.Items())
}

func TestBuffer_RemoveFirst(t *testing.T) {
	b := New[int](5)
	for i := 0; i < 4; i++ {
		b.Push(i)
	}
	assert.Equal(t, 2, b.RemoveFirst(2))
	assert.Equal(t, []int{2, 3}, b.Items())
	assert.Equal(t, 2, b.RemoveFirst(10))
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_CloneIsIndependent(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	c := b.Clone()
	c.Push(2)
	c.Push(3)

	assert.Equal(t, []int{1}, b.Items())
	assert.Equal(t, []int{2, 3}, c.Items())
}

func TestBuffer_JSON(t *testing.T) {
	t.Run("array encoding", func(t *testing.T) {
		b := New[int](3)
		b.Push(7)
		b.Push(8)
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		assert.JSONEq(t, `[7,8]`, string(raw))
	})

	t.Run("decode keeps configured capacity", func(t *testing.T) {
		b := New[int](2)
		require.NoError(t, json.Unmarshal([]byte(`[1,2,3,4]`), b))
		assert.Equal(t, 2, b.Cap())
		assert.Equal(t, []int{3, 4}, b.Items())
	})

	t.Run("decode into zero value sizes to input", func(t *testing.T) {
		var b Buffer[int]
		require.NoError(t, json.Unmarshal([]byte(`[1,2,3]`), &b))
		assert.Equal(t, 3, b.Cap())
		assert.Equal(t, []int{1, 2, 3}, b.Items())
	})

	t.Run("empty buffer encodes as empty array", func(t *testing.T) {
		raw, err := json.Marshal(New[int](1))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(raw))
	})
}

func TestBuffer_NeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(rt, "capacity")
		pushes := rapid.SliceOf(rapid.Int()).Draw(rt, "pushes")

		b := New[int](capacity)
		for _, v := range pushes {
			b.Push(v)
			if b.Len() > capacity {
				rt.Fatalf("len %d exceeds capacity %d", b.Len(), capacity)
			}
		}

		keep := len(pushes)
		if keep > capacity {
			keep = capacity
		}
		want := pushes[len(pushes)-keep:]
		got := b.Items()
		if len(got) != len(want) {
			rt.Fatalf("got %d items, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("item %d: got %d, want %d", i, got[i], want[i])
			}
		}
	})
}
