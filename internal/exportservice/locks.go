package exportservice

import (
	"context"
	"sync"
)

// pathLocks serialises work per document path. Entries are dropped once no
// caller holds or waits for them.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	sem  chan struct{}
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// lock blocks until path is free or ctx is done.
func (p *pathLocks) lock(ctx context.Context, path string) (func(), error) {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &pathLock{sem: make(chan struct{}, 1)}
		p.locks[path] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			p.release(path, l)
		}, nil
	case <-ctx.Done():
		p.release(path, l)
		return nil, ctx.Err()
	}
}

func (p *pathLocks) release(path string, l *pathLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l.refs--; l.refs == 0 {
		delete(p.locks, path)
	}
}
