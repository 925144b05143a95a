package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRebuildsChangedDocuments(t *testing.T) {
	b := newTestBuilder(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan BuildReport, 16)
	done := make(chan error, 1)
	go func() {
		done <- b.Watch(ctx, 20*time.Millisecond, func(report BuildReport) {
			select {
			case reports <- report:
			default:
			}
		})
	}()

	// The watcher registers asynchronously, so keep touching the source until
	// a rebuild picks it up.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(10 * time.Second)

	written := false
	for !written {
		select {
		case report := <-reports:
			for _, doc := range report.Written {
				if doc.Doc == "guide/setup" {
					written = true
				}
			}
		case <-ticker.C:
			writeSource(t, b.cfg.SourceDir, "guide/setup.yaml", setupYAML)
		case <-deadline:
			t.Fatal("no rebuild observed")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}

	data, err := os.ReadFile(filepath.Join(b.cfg.OutputDir, "guide", "setup.md"))
	require.NoError(t, err)
	assert.Equal(t, "Setup steps\n\n", string(data))
}

func TestWatchFailsOnMissingSourceDir(t *testing.T) {
	b := newTestBuilder(t, Config{SourceDir: filepath.Join(t.TempDir(), "missing")})

	err := b.Watch(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestIsSourceFile(t *testing.T) {
	b := newTestBuilder(t, Config{SourceDir: "src", OutputDir: "out"})

	assert.True(t, b.isSourceFile(filepath.Join("src", "intro.json")))
	assert.True(t, b.isSourceFile(filepath.Join("src", "a", "b.yml")))
	assert.True(t, b.isSourceFile(filepath.Join("src", "intro.secnum.json")))
	assert.False(t, b.isSourceFile(filepath.Join("src", "intro.md")))
	assert.False(t, b.isSourceFile(filepath.Join("src", "intro.json.swp")))
}
