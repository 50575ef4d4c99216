package main

import (
	"sync"
	"testing"
)

func TestNextProxyEmptyPool(t *testing.T) {
	pool := NewProxyPool(nil)

	if proxy := pool.Next(); proxy != nil {
		t.Errorf("Expected nil from an empty pool, got %+v", proxy)
	}
}

func TestNextProxyRoundRobin(t *testing.T) {
	pool := NewProxyPool([]ProxyConfig{
		{Server: "http://p1"},
		{Server: "http://p2"},
		{Server: "http://p3"},
	})

	expected := []string{"http://p1", "http://p2", "http://p3", "http://p1", "http://p2"}
	for i, server := range expected {
		proxy := pool.Next()
		if proxy == nil || proxy.Server != server {
			t.Errorf("Request %d: expected %s, got %+v", i, server, proxy)
		}
	}
}

func TestNextProxyFairDistribution(t *testing.T) {
	pool := NewProxyPool([]ProxyConfig{
		{Server: "http://p1"},
		{Server: "http://p2"},
		{Server: "http://p3"},
	})

	const requests = 100
	counts := make(map[string]int)
	for i := 0; i < requests; i++ {
		counts[pool.Next().Server]++
	}

	// With K requests over M proxies each proxy comes back
	// floor(K/M) or ceil(K/M) times.
	for server, count := range counts {
		if count < requests/3 || count > requests/3+1 {
			t.Errorf("Proxy %s returned %d times, expected %d or %d", server, count, requests/3, requests/3+1)
		}
	}
}

func TestNextProxyConcurrent(t *testing.T) {
	pool := NewProxyPool([]ProxyConfig{
		{Server: "http://p1"},
		{Server: "http://p2"},
	})

	const requests = 100
	results := make(chan string, requests)

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- pool.Next().Server
		}()
	}
	wg.Wait()
	close(results)

	counts := make(map[string]int)
	for server := range results {
		counts[server]++
	}

	if counts["http://p1"] != 50 || counts["http://p2"] != 50 {
		t.Errorf("Expected an even 50/50 split, got %+v", counts)
	}
}

func TestPoolSize(t *testing.T) {
	if size := NewProxyPool(nil).Size(); size != 0 {
		t.Errorf("Expected size 0, got %d", size)
	}
	if size := NewProxyPool([]ProxyConfig{{Server: "http://p1"}}).Size(); size != 1 {
		t.Errorf("Expected size 1, got %d", size)
	}
}
