package agents

import "sync"

// uploadCache remembers remote references for assets already uploaded,
// keyed by job id plus content hash, so identical bytes are never sent
// twice within a job.
type uploadCache struct {
	mu   sync.Mutex
	refs map[string]string
}

func newUploadCache() *uploadCache {
	return &uploadCache{refs: make(map[string]string)}
}

func (c *uploadCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.refs[key]
	return ref, ok
}

func (c *uploadCache) put(key, ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs[key] = ref
}
