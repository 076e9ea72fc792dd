package kb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/flyboard/agentd/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// indexedEntry is the derived per-entry view: term frequency tables for
// title and content, lowercased tags and audience.
type indexedEntry struct {
	entry     *model.Entry
	titleTF   map[string]int
	contentTF map[string]int
	tags      []string
	audience  string
}

// Cache holds the process-wide index keyed by the source document's
// modification timestamp. A rebuild constructs a complete replacement slice
// before publishing it, so readers never observe a partial index.
type Cache struct {
	path string

	mu      sync.RWMutex
	mtime   time.Time
	entries []*indexedEntry
}

func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Get returns the cached index, rebuilding it first when the document's
// modification timestamp differs from the last observed value.
func (c *Cache) Get() ([]*indexedEntry, error) {
	st, err := os.Stat(c.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat knowledge base document", goerr.V("path", c.path))
	}

	c.mu.RLock()
	if c.entries != nil && c.mtime.Equal(st.ModTime()) {
		entries := c.entries
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	return c.rebuild(st.ModTime())
}

// Refresh re-stats the document and rebuilds the index if it changed.
// Used by the watcher to pre-warm the cache; Get remains the correctness
// mechanism.
func (c *Cache) Refresh() error {
	_, err := c.Get()
	return err
}

func (c *Cache) rebuild(mtime time.Time) ([]*indexedEntry, error) {
	raw, err := loadEntries(c.path)
	if err != nil {
		return nil, err
	}

	indexed := make([]*indexedEntry, 0, len(raw))
	for _, entry := range raw {
		if err := entry.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid knowledge base entry")
		}

		tags := make([]string, 0, len(entry.Tags))
		for _, tag := range entry.Tags {
			tags = append(tags, strings.ToLower(tag))
		}

		indexed = append(indexed, &indexedEntry{
			entry:     entry,
			titleTF:   termFreq(tokenize(entry.Title)),
			contentTF: termFreq(tokenize(entry.Content)),
			tags:      tags,
			audience:  strings.ToLower(string(entry.Audience)),
		})
	}

	c.mu.Lock()
	c.mtime = mtime
	c.entries = indexed
	c.mu.Unlock()

	return indexed, nil
}

// loadEntries parses the knowledge base document. YAML documents are
// recognized by extension; everything else is treated as JSON.
func loadEntries(path string) ([]*model.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read knowledge base document", goerr.V("path", path))
	}

	var entries []*model.Entry
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, goerr.Wrap(err, "failed to parse knowledge base YAML", goerr.V("path", path))
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, goerr.Wrap(err, "failed to parse knowledge base JSON", goerr.V("path", path))
		}
	}

	return entries, nil
}
