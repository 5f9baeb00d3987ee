package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/source"
)

func TestNewSeedsRoot(t *testing.T) {
	r := New()

	require.True(t, r.Contains(RootName))
	assert.Equal(t, RootName, r.Root().Name())
	assert.Equal(t, source.DefaultRootTemplate, r.Root().Template())
	assert.Same(t, r.Root(), r.Resolve(""))
	assert.Same(t, r.Root(), r.Resolve(RootName))
}

func TestResolveIsIdempotent(t *testing.T) {
	r := New()

	a := r.Resolve("svc")
	b := r.Resolve("svc")
	assert.Same(t, a, b)
	assert.Equal(t, model.Warn, a.Threshold())
	assert.Equal(t, source.DefaultTemplate, a.Template())
}

func TestResolveConcurrentSingleWinner(t *testing.T) {
	r := New()

	const workers = 64
	got := make([]*source.Source, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			got[i] = r.Resolve("contended")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.Equal(t, 2, r.Len())
}

func TestRegisterDuplicateKeepsOriginal(t *testing.T) {
	r := New()
	original := source.New("svc", source.WithThreshold(model.Debug))
	require.NoError(t, r.Register(original))

	err := r.Register(source.New("svc", source.WithThreshold(model.Critical)))
	assert.True(t, errors.Is(err, ErrExists))

	s, ok := r.Lookup("svc")
	require.True(t, ok)
	assert.Same(t, original, s)
	assert.Equal(t, model.Debug, s.Threshold())
}

func TestRegisterEmptyNameFails(t *testing.T) {
	r := New()
	err := r.Register(source.New(""))
	assert.True(t, errors.Is(err, ErrEmptyName))
	assert.False(t, r.Contains(""))
	assert.Equal(t, 1, r.Len())
}

func TestRegisterRootFails(t *testing.T) {
	r := New()
	err := r.Register(source.New(RootName))
	assert.True(t, errors.Is(err, ErrExists))
}

func TestUnregister(t *testing.T) {
	r := New()
	first := r.Resolve("svc")
	first.SetThreshold(model.Debug)

	require.NoError(t, r.Unregister("svc"))
	assert.False(t, r.Contains("svc"))

	fresh := r.Resolve("svc")
	assert.NotSame(t, first, fresh)
	assert.Equal(t, model.Warn, fresh.Threshold())
}

func TestUnregisterRootIsProtected(t *testing.T) {
	r := New()

	err := r.Unregister(RootName)
	assert.True(t, errors.Is(err, ErrProtected))
	assert.True(t, r.Contains(RootName))
}

func TestUnregisterUnknown(t *testing.T) {
	r := New()
	err := r.Unregister("ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNamesSorted(t *testing.T) {
	r := New()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		r.Resolve(n)
	}
	assert.Equal(t, []string{"alpha", "mid", RootName, "zeta"}, r.Names())
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("src-%d", i)
			assert.NoError(t, r.Register(source.New(name)))
			assert.True(t, r.Contains(name))
			assert.NoError(t, r.Unregister(name))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{RootName}, r.Names())
}
