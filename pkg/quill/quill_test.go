package quill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// withEngine swaps in a fresh default engine for the duration of a test.
func withEngine(t *testing.T) *Engine {
	t.Helper()
	prev := Default()
	e := NewEngine()
	SetDefault(e)
	t.Cleanup(func() { SetDefault(prev) })
	return e
}

func TestPackageLevelPublish(t *testing.T) {
	withEngine(t)

	var lines []string
	sub := OnBroadcast(func(e Event) { lines = append(lines, e.Line) })
	defer Off(sub)

	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	Critical("c")
	Log(LevelCritical, "again")

	assert.Equal(t, []string{
		"WARN root: w",
		"ERROR root: e",
		"CRITICAL root: c",
		"CRITICAL root: again",
	}, lines)
}

func TestNamedSourceWithFile(t *testing.T) {
	withEngine(t)
	path := filepath.Join(t.TempDir(), "logs", "branch.log")

	branch := NewLogger("branch1",
		WithThreshold(LevelDebug),
		WithTemplate("[(linenum)] (level) (name): (message)"),
		WithPath(path),
	)
	require.NoError(t, RegisterLogger(branch))
	assert.True(t, IsRegistered("branch1"))
	assert.Same(t, branch, GetLogger("branch1"))

	Publish("branch1", LevelWarn, "Hello?")
	Named("branch1").Debug("still recorded")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[1] WARN branch1: Hello?\n[2] DEBUG branch1: still recorded\n", string(raw))
}

func TestRegistryErrorsAreEvents(t *testing.T) {
	withEngine(t)

	var internal []Event
	OnEvent(func(e Event) {
		if e.Internal {
			internal = append(internal, e)
		}
	})

	assert.ErrorIs(t, UnregisterLogger(RootName), ErrProtected)
	assert.ErrorIs(t, UnregisterLogger("ghost"), ErrNotFound)
	GetLogger("dup")
	assert.ErrorIs(t, RegisterLogger(NewLogger("dup")), ErrExists)

	assert.Len(t, internal, 3)
	assert.True(t, IsRegistered(RootName))
}

func TestOnDebug(t *testing.T) {
	withEngine(t)

	var got []string
	OnDebug(func(e Event) { got = append(got, e.Message) })

	Debug("one")
	Named("svc").Debug("two")
	Info("skip")

	assert.Equal(t, []string{"one", "two"}, got)
}

func TestApplyBasicConfig(t *testing.T) {
	withEngine(t)
	path := filepath.Join(t.TempDir(), "root.log")

	cfg := DefaultBasicConfig()
	assert.Equal(t, LevelWarn, cfg.Level)
	assert.Equal(t, "(level) (name): (message)", cfg.Format)

	cfg.Level = LevelInfo
	cfg.FileName = path
	cfg.Format = "(level)|(message)"
	ApplyBasicConfig(cfg)

	Info("configured")
	Debug("ignored")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "INFO|configured\n", string(raw))
	assert.Equal(t, LevelInfo, Root().Threshold())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("critical")
	require.NoError(t, err)
	assert.Equal(t, LevelCritical, l)
}

func TestNewEngineOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEngine(WithMetrics(reg), WithDiagnostics(zap.New(core)))

	e.Debug("mirrored")

	n, err := testutil.GatherAndCount(reg, "quill_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, logs.Len())
}
