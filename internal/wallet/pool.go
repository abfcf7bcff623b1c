package wallet

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// kdfPool bounds how many expensive key-derivation or PIN-hash computations
// run at once, so one owner's scrypt/argon2 call cannot stall every other
// request. The contract stays synchronous: run blocks until the work is done.
type kdfPool struct {
	sem *semaphore.Weighted
}

func newKDFPool(size int) *kdfPool {
	if size < 1 {
		size = 1
	}
	return &kdfPool{sem: semaphore.NewWeighted(int64(size))}
}

func (p *kdfPool) run(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
