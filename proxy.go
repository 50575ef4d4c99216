package main

import "sync"

// ProxyPool hands out proxies in strict round-robin order. The index is
// the only mutable state and the lock is held just for the
// read-and-advance.
type ProxyPool struct {
	mu      sync.Mutex
	proxies []ProxyConfig
	index   int
}

func NewProxyPool(proxies []ProxyConfig) *ProxyPool {
	return &ProxyPool{proxies: proxies}
}

// Next returns the next proxy in rotation, or nil when the pool is
// empty.
func (p *ProxyPool) Next() *ProxyConfig {
	if len(p.proxies) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	proxy := &p.proxies[p.index]
	p.index = (p.index + 1) % len(p.proxies)
	return proxy
}

// Size returns the number of configured proxies.
func (p *ProxyPool) Size() int {
	return len(p.proxies)
}
