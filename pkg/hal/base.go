// SPDX-License-Identifier: BSD-3-Clause

package hal

import "sync"

// base implements the fault latch and brightness bookkeeping shared by
// every driver, concrete or fallback. Drivers embed it rather than
// reimplementing HasFailed/Fail/SetBrightness/GetBrightness.
type base struct {
	mu         sync.Mutex
	failed     bool
	failErr    error
	brightness int
	numLEDs    int
}

func newBase(numLEDs int) base {
	return base{brightness: 100, numLEDs: numLEDs}
}

func (b *base) HasFailed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}

func (b *base) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = true
	b.failErr = err
}

func (b *base) FailureReason() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failErr
}

func (b *base) SetBrightness(v int) error {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.brightness = v
	return nil
}

func (b *base) GetBrightness() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.brightness
}

func (b *base) NumLEDs() int {
	return b.numLEDs
}
