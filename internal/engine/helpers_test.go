package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/tcat/internal/queue"
)

// writeTree creates files under root from a relative-path -> content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// drain collects every task a scanner sends into q.
func drain(q *queue.Queue[ScanTask]) <-chan []ScanTask {
	out := make(chan []ScanTask, 1)
	go func() {
		var tasks []ScanTask
		for {
			task, ok := q.Recv()
			if !ok {
				break
			}
			tasks = append(tasks, task)
		}
		out <- tasks
	}()
	return out
}

func taskPaths(tasks []ScanTask) []string {
	paths := make([]string, 0, len(tasks))
	for _, task := range tasks {
		paths = append(paths, task.Path)
	}
	return paths
}

var errBoom = errors.New("boom")

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) { return 0, errBoom }
