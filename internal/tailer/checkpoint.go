package tailer

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// checkpointData is the on-disk JSON structure for persisted offsets.
type checkpointData struct {
	Offsets map[string]int64 `json:"offsets"`
}

// Checkpoint persists file read offsets so ingestion resumes after a restart.
// An empty path keeps offsets in memory only.
type Checkpoint struct {
	mu   sync.RWMutex
	path string
	data checkpointData
}

// NewCheckpoint loads the checkpoint at path, starting empty if the file
// does not exist. A corrupt file is an error.
func NewCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{
		path: path,
		data: checkpointData{Offsets: make(map[string]int64)},
	}
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return c, nil
	case err != nil:
		return nil, errors.Wrapf(err, "read checkpoint %s", path)
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		return nil, errors.Wrapf(err, "decode checkpoint %s", path)
	}
	if c.data.Offsets == nil {
		c.data.Offsets = make(map[string]int64)
	}
	return c, nil
}

// Get returns the saved offset for a file path.
func (c *Checkpoint) Get(path string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data.Offsets[path]
	return v, ok
}

// Set records the current offset for a file path.
func (c *Checkpoint) Set(path string, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Offsets[path] = offset
}

// Save writes the offsets via a temp file and rename.
func (c *Checkpoint) Save() error {
	if c.path == "" {
		return nil
	}
	c.mu.RLock()
	raw, err := json.MarshalIndent(c.data, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "encode checkpoint")
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrapf(err, "write checkpoint %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, c.path), "commit checkpoint %s", c.path)
}
