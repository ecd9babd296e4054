package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testComponent struct {
	ID string
}

func TestRegisterAndGet(t *testing.T) {
	r := New[*testComponent]()

	require.NoError(t, r.Register("alpha", &testComponent{ID: "a"}))

	got, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := New[*testComponent]()
	assert.Error(t, r.Register("", &testComponent{}))
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := New[*testComponent]()
	require.NoError(t, r.Register("alpha", &testComponent{ID: "a"}))
	assert.Error(t, r.Register("alpha", &testComponent{ID: "b"}))
}

func TestNamesSorted(t *testing.T) {
	r := New[*testComponent]()
	require.NoError(t, r.Register("zeta", &testComponent{}))
	require.NoError(t, r.Register("alpha", &testComponent{}))
	require.NoError(t, r.Register("mid", &testComponent{}))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())
	assert.Equal(t, 3, r.Count())
}

func TestRemove(t *testing.T) {
	r := New[*testComponent]()
	require.NoError(t, r.Register("alpha", &testComponent{}))
	require.NoError(t, r.Remove("alpha"))
	assert.Error(t, r.Remove("alpha"))
	assert.Equal(t, 0, r.Count())
}
