// Package demo implements the canonical threadkit workloads driven by the CLI:
// a Mandelbrot grid over a pool, message producers over a pool, and message
// producers on a single detached thread.
package demo

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Swind/go-threadkit/core"
)

// GridOptions configures RunGrid.
type GridOptions struct {
	PoolSize      int
	Side          int
	MaxIterations int
	Bailout       float64

	// Pool is passed to NewPoolWithConfig. It may be nil.
	Pool *core.PoolConfig

	// OnPool, if set, is called with the pool right after it is created.
	OnPool func(p *core.Pool)
}

// Unvisited marks a grid cell that no task has written.
const Unvisited = -1

// GridResult is the escape-time grid computed by RunGrid.
type GridResult struct {
	Side  int
	Cells []int

	// Elapsed covers submission and Close only, not pool creation or rendering.
	Elapsed time.Duration
}

// RunGrid submits one task per cell of a Side×Side grid to a new pool. Each
// task writes only its own slot of a shared Vector, so no locking is needed.
// The pool is closed before RunGrid returns.
func RunGrid(opts GridOptions) (*GridResult, error) {
	if opts.Side < 1 {
		return nil, fmt.Errorf("%w: grid side %d", core.ErrInvalidSize, opts.Side)
	}

	pool, err := core.NewPoolWithConfig(opts.PoolSize, opts.Pool)
	if err != nil {
		return nil, err
	}
	if opts.OnPool != nil {
		opts.OnPool(pool)
	}

	// Cells start at Unvisited so a slot no task wrote stays detectable.
	cells, err := core.NewVector[int](0)
	if err == nil {
		err = cells.Resize(opts.Side*opts.Side, Unvisited)
	}
	if err != nil {
		_ = pool.Close()
		return nil, err
	}

	half := opts.Side / 2
	// A 78-cell side spans [-39/40, 38/40] on both axes.
	scale := float64(half + 1)
	start := time.Now()

	for row := range opts.Side {
		for col := range opts.Side {
			x := float64(col-half) / scale
			y := float64(row-half) / scale
			if err := pool.AddFunctionTask(iterate, x, y, opts.MaxIterations, opts.Bailout, cells, row*opts.Side+col); err != nil {
				_ = pool.Close()
				return nil, err
			}
		}
	}
	if err := pool.Close(); err != nil {
		return nil, err
	}

	return &GridResult{
		Side:    opts.Side,
		Cells:   cells.Snapshot(),
		Elapsed: time.Since(start),
	}, nil
}

// iterate stores the escape iteration of the point into results[slot], or 0
// if it did not escape within maxIterations.
func iterate(x, y float64, maxIterations int, bailout float64, results *core.Vector[int], slot int) {
	cr := y - 0.5
	ci := x
	var zr, zi float64

	for i := 1; ; i++ {
		temp := zr * zi
		zr2 := zr * zr
		zi2 := zi * zi
		zr = zr2 - zi2 + cr
		zi = temp + temp + ci

		if zi2+zr2 > bailout {
			_ = results.UpdateAt(slot, i)
			return
		}
		if i > maxIterations {
			_ = results.UpdateAt(slot, 0)
			return
		}
	}
}

// Inside reports the number of cells that did not escape.
func (r *GridResult) Inside() int {
	n := 0
	for _, v := range r.Cells {
		if v == 0 {
			n++
		}
	}
	return n
}

// Render writes the grid as text, '*' for points inside the set.
func (r *GridResult) Render(w io.Writer) error {
	var b strings.Builder
	b.Grow(r.Side * (r.Side + 1))
	for i, v := range r.Cells {
		if v == 0 {
			b.WriteByte('*')
		} else {
			b.WriteByte(' ')
		}
		if (i+1)%r.Side == 0 {
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
