package loader

import "context"

// OnReady runs fn exactly once: immediately when ready is nil or already
// closed, otherwise after ready closes. If ctx ends before ready closes, fn
// never runs. The returned channel yields ctx.Err() in that case and is
// closed without a value once fn has returned.
func OnReady(ctx context.Context, ready <-chan struct{}, fn func()) <-chan error {
	done := make(chan error, 1)
	run := func() {
		defer close(done)
		fn()
	}

	if ready == nil {
		run()
		return done
	}
	select {
	case <-ready:
		run()
		return done
	default:
	}

	go func() {
		select {
		case <-ready:
			run()
		case <-ctx.Done():
			done <- ctx.Err()
			close(done)
		}
	}()
	return done
}
