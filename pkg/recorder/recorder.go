package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// Recorder persists sequentially numbered records to an append-only JSONL
// log with a sibling counter file. One exclusive lock is held across the
// whole read-increment-write-append sequence: the log file is a single
// serialization point, so identifiers stay unique and gap-free under
// concurrent callers.
type Recorder struct {
	mu          sync.Mutex
	logPath     string
	counterPath string
	prefix      string
}

// New creates a recorder writing <name>.jsonl and <name>_counter.txt under
// dir. IDs are formatted as <prefix>-NNNNNN.
func New(dir, name, prefix string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create recorder directory", goerr.V("dir", dir))
	}

	return &Recorder{
		logPath:     filepath.Join(dir, name+".jsonl"),
		counterPath: filepath.Join(dir, name+"_counter.txt"),
		prefix:      prefix,
	}, nil
}

// Append allocates the next identifier, stores it under the "id" key of
// record, and appends the record to the log. Returns the allocated ID.
func (r *Recorder) Append(record map[string]any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter, err := r.loadCounter()
	if err != nil {
		return "", err
	}
	counter++

	if err := os.WriteFile(r.counterPath, []byte(strconv.Itoa(counter)), 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write counter file", goerr.V("path", r.counterPath))
	}

	id := fmt.Sprintf("%s-%06d", r.prefix, counter)
	record["id"] = id

	line, err := json.Marshal(record)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal record")
	}

	f, err := os.OpenFile(r.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open record log", goerr.V("path", r.logPath))
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return "", goerr.Wrap(err, "failed to append record", goerr.V("path", r.logPath))
	}

	return id, nil
}

func (r *Recorder) loadCounter() (int, error) {
	data, err := os.ReadFile(r.counterPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read counter file", goerr.V("path", r.counterPath))
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid counter file content", goerr.V("path", r.counterPath))
	}
	return n, nil
}
