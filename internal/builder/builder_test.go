package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonsieve/internal/models"
)

func TestBuilder_RootScalar(t *testing.T) {
	b := New(0)
	require.NoError(t, b.OnValue(models.Number("42")))

	v, ok := b.Result()
	require.True(t, ok)
	assert.True(t, v.Equal(models.Number("42")))
	assert.ErrorIs(t, b.OnValue(models.Null()), ErrBuilderState)
}

func TestBuilder_NestedContainers(t *testing.T) {
	// {"a":[1,{"b":true}],"c":null}
	b := New(4)
	require.NoError(t, b.BeginContainer(models.KindObject))
	require.NoError(t, b.OnKey("a"))
	require.NoError(t, b.BeginContainer(models.KindArray))
	require.NoError(t, b.OnValue(models.Number("1")))
	require.NoError(t, b.BeginContainer(models.KindObject))
	require.NoError(t, b.OnKey("b"))
	require.NoError(t, b.OnValue(models.Bool(true)))
	assert.Equal(t, 3, b.Depth())
	require.NoError(t, b.EndContainer())
	require.NoError(t, b.EndContainer())
	require.NoError(t, b.OnKey("c"))
	require.NoError(t, b.OnValue(models.Null()))
	assert.False(t, b.Done())
	require.NoError(t, b.EndContainer())

	got, ok := b.Result()
	require.True(t, ok)

	inner := models.NewObject()
	inner.Set("b", models.Bool(true))
	want := models.NewObject()
	want.Set("a", models.Array(models.Number("1"), models.ObjectValue(inner)))
	want.Set("c", models.Null())
	assert.True(t, got.Equal(models.ObjectValue(want)))
	assert.Equal(t, []string{"a", "c"}, got.Object().Keys())
}

func TestBuilder_DuplicateKeysLastWriteWins(t *testing.T) {
	b := New(1)
	require.NoError(t, b.BeginContainer(models.KindObject))
	require.NoError(t, b.OnKey("x"))
	require.NoError(t, b.OnValue(models.Number("1")))
	require.NoError(t, b.OnKey("y"))
	require.NoError(t, b.OnValue(models.Number("2")))
	require.NoError(t, b.OnKey("x"))
	require.NoError(t, b.OnValue(models.Number("3")))
	require.NoError(t, b.EndContainer())

	got, _ := b.Result()
	assert.Equal(t, []string{"x", "y"}, got.Object().Keys())
	x, _ := got.Object().Get("x")
	assert.Equal(t, "3", x.Text())
}

func TestBuilder_EmptyContainers(t *testing.T) {
	b := New(2)
	require.NoError(t, b.BeginContainer(models.KindArray))
	require.NoError(t, b.BeginContainer(models.KindObject))
	require.NoError(t, b.EndContainer())
	require.NoError(t, b.BeginContainer(models.KindArray))
	require.NoError(t, b.EndContainer())
	require.NoError(t, b.EndContainer())

	got, ok := b.Result()
	require.True(t, ok)
	require.Len(t, got.Items(), 2)
	assert.Equal(t, models.KindObject, got.Items()[0].Kind())
	assert.Equal(t, 0, got.Items()[0].Len())
	assert.NotNil(t, got.Items()[1].Items())
}

func TestBuilder_DeepNestingIsIterative(t *testing.T) {
	const depth = 200000
	b := New(16)
	for i := 0; i < depth; i++ {
		require.NoError(t, b.BeginContainer(models.KindArray))
	}
	for i := 0; i < depth; i++ {
		require.NoError(t, b.EndContainer())
	}
	_, ok := b.Result()
	assert.True(t, ok)
}

func TestBuilder_DeepMixedNesting(t *testing.T) {
	// {"k":[{"k":[ ... "leaf" ... ]}]} alternating objects and arrays
	const depth = 100000
	start := time.Now()

	b := New(16)
	for i := 0; i < depth; i++ {
		if i%2 == 0 {
			require.NoError(t, b.BeginContainer(models.KindObject))
			require.NoError(t, b.OnKey("k"))
		} else {
			require.NoError(t, b.BeginContainer(models.KindArray))
		}
	}
	assert.Equal(t, depth, b.Depth())
	require.NoError(t, b.OnValue(models.String("leaf")))
	for i := 0; i < depth; i++ {
		require.NoError(t, b.EndContainer())
	}
	assert.Less(t, time.Since(start), 10*time.Second)

	v, ok := b.Result()
	require.True(t, ok)
	for i := 0; i < depth; i++ {
		if i%2 == 0 {
			require.Equal(t, models.KindObject, v.Kind(), "level %d", i)
			v, _ = v.Object().Get("k")
		} else {
			require.Equal(t, models.KindArray, v.Kind(), "level %d", i)
			require.Len(t, v.Items(), 1)
			v = v.Items()[0]
		}
	}
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "leaf", s)
}

func TestBuilder_Misuse(t *testing.T) {
	tests := []struct {
		name string
		run  func(b *Builder) error
	}{
		{
			name: "end on empty stack",
			run:  func(b *Builder) error { return b.EndContainer() },
		},
		{
			name: "key inside array",
			run: func(b *Builder) error {
				if err := b.BeginContainer(models.KindArray); err != nil {
					return err
				}
				return b.OnKey("k")
			},
		},
		{
			name: "object value without key",
			run: func(b *Builder) error {
				if err := b.BeginContainer(models.KindObject); err != nil {
					return err
				}
				return b.OnValue(models.Null())
			},
		},
		{
			name: "scalar kind as container",
			run:  func(b *Builder) error { return b.BeginContainer(models.KindString) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(New(1)), ErrBuilderState)
		})
	}
}
