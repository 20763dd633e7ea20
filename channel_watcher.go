package statez

import "context"

// ChannelWatcher feeds Bind from a channel of raw payloads.
//
// A bound State only keeps its latest write, so the watcher does too: when
// the consumer falls behind, an unread payload is replaced by the newer one
// instead of queueing.
type ChannelWatcher struct {
	ch <-chan []byte
}

// NewChannelWatcher creates a ChannelWatcher reading from ch.
func NewChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{ch: ch}
}

// Watch forwards payloads from the wrapped channel until it closes or ctx
// ends. A payload still unread when the source closes is delivered before
// the returned channel closes.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-w.ch:
				if !ok {
					return
				}
				latest(out, raw)
			}
		}
	}()
	return out, nil
}

// latest puts raw into the single-slot channel out, dropping any payload
// still waiting there. out must have capacity 1.
func latest(out chan []byte, raw []byte) {
	for {
		select {
		case out <- raw:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
