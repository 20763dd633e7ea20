package statez

import (
	"context"
	"errors"
	"fmt"

	"github.com/zoobzio/capitan"
)

// Watcher observes a source for changes and emits raw bytes on a channel.
// Implementations should emit the current value immediately so the bound
// State starts from the source's contents.
type Watcher interface {
	// Watch begins observing the source. The returned channel is closed when
	// ctx is canceled or the source ends.
	Watch(ctx context.Context) (<-chan []byte, error)
}

// ErrSourceClosed is returned by Bind when the watcher closes before
// emitting its first value.
var ErrSourceClosed = errors.New("watcher closed before emitting initial value")

// Bind feeds s from w. Every emission is decoded with codec (JSONCodec when
// nil) and written with s.Set, so a managed State coalesces source updates
// like any other write.
//
// Bind blocks until the first emission is applied and returns its decode
// error, if any. Later emissions are applied in the background until ctx
// ends or the watcher closes. A payload that fails to decode leaves the
// State unchanged.
func Bind(ctx context.Context, s *State, w Watcher, codec Codec) error {
	if codec == nil {
		codec = JSONCodec{}
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	capitan.Emit(ctx, SourceStarted,
		KeyName.Field(s.Name()),
		KeyCodec.Field(codec.ContentType()),
	)

	var initialErr error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case raw, ok := <-changes:
		if !ok {
			return ErrSourceClosed
		}
		initialErr = applySource(ctx, s, codec, raw)
	}

	go func() {
		defer capitan.Emit(ctx, SourceStopped, KeyName.Field(s.Name()))
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-changes:
				if !ok {
					return
				}
				_ = applySource(ctx, s, codec, raw) //nolint:errcheck // Reported via SourceDecodeFailed
			}
		}
	}()

	return initialErr
}

func applySource(ctx context.Context, s *State, codec Codec, raw []byte) error {
	v, err := codec.Decode(raw)
	if err != nil {
		err = fmt.Errorf("decode failed: %w", err)
		capitan.Emit(ctx, SourceDecodeFailed,
			KeyName.Field(s.Name()),
			KeyError.Field(err.Error()),
		)
		if s.manager != nil {
			s.manager.recordFailure(s.Name(), err)
		}
		return err
	}
	s.Set(v)
	return nil
}
