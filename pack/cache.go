package pack

import (
	"sync"

	"github.com/mogaika/overgrowth_browser/vfs"
)

type cachedInstance struct {
	inst interface{}
	src  ResourceSource
}

// InstanceCache keeps loaded instances by file name until the file changes
type InstanceCache struct {
	lock      sync.Mutex
	instances map[string]cachedInstance
}

func NewInstanceCache() *InstanceCache {
	return &InstanceCache{instances: make(map[string]cachedInstance)}
}

func (c *InstanceCache) Get(fileName string) (interface{}, ResourceSource, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	ci, ok := c.instances[fileName]
	return ci.inst, ci.src, ok
}

func (c *InstanceCache) Put(fileName string, inst interface{}, src ResourceSource) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.instances[fileName] = cachedInstance{inst: inst, src: src}
}

func (c *InstanceCache) Invalidate(fileName string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.instances[fileName]
	delete(c.instances, fileName)
	return ok
}

func (c *InstanceCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.instances)
}

// GetInstance returns the cached instance or loads it from d
func (c *InstanceCache) GetInstance(d vfs.Directory, fileName string) (interface{}, ResourceSource, error) {
	if inst, src, ok := c.Get(fileName); ok {
		return inst, src, nil
	}
	inst, src, err := GetInstanceHandler(d, fileName)
	if err != nil {
		return nil, nil, err
	}
	c.Put(fileName, inst, src)
	return inst, src, nil
}
