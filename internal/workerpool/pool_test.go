package workerpool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitDeliversCompletion(t *testing.T) {
	p := New(2, 4)
	defer p.Close()

	job := NewJob("echo", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	p.Submit(job)

	select {
	case c := <-p.Completions():
		if c.Cancelled() {
			t.Fatalf("expected completion, got cancellation")
		}
		if c.Result != 42 {
			t.Fatalf("expected result 42, got %v", c.Result)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}
}

func TestSubmitPropagatesError(t *testing.T) {
	p := New(1, 4)
	defer p.Close()

	wantErr := errors.New("boom")
	job := NewJob("fails", func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	p.Submit(job)

	c := <-p.Completions()
	if c.Err != wantErr {
		t.Fatalf("expected propagated error, got %v", c.Err)
	}
}

func TestCancelBeforeRunDeliversCancellation(t *testing.T) {
	p := New(1, 4)
	defer p.Close()

	started := make(chan struct{})
	block := make(chan struct{})
	blocker := NewJob("blocker", func(ctx context.Context) (any, error) {
		close(started)
		<-block
		return nil, nil
	})
	p.Submit(blocker)
	<-started

	job := NewJob("cancel-me", func(ctx context.Context) (any, error) {
		return "should not run", nil
	})
	job.Cancel()
	p.Submit(job)
	close(block)

	seenCancel := false
	for i := 0; i < 2; i++ {
		c := <-p.Completions()
		if c.Job == job {
			if !c.Cancelled() {
				t.Fatalf("expected cancellation for pre-cancelled job")
			}
			seenCancel = true
		}
	}
	if !seenCancel {
		t.Fatalf("expected to observe the cancelled job's completion")
	}
}

func TestGracelesslyQuitSuppressesCallback(t *testing.T) {
	p := New(1, 4)
	defer p.Close()

	ran := make(chan struct{}, 1)
	job := NewJob("graceless", func(ctx context.Context) (any, error) {
		ran <- struct{}{}
		return nil, nil
	})
	job.GracelesslyQuit()
	p.Submit(job)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job body never ran")
	}

	select {
	case c := <-p.Completions():
		t.Fatalf("expected no completion for gracelessly-quit job, got %v", c)
	case <-time.After(50 * time.Millisecond):
	}
}
