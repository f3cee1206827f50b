package logtail

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

type message struct {
	kind, status, text string
}

// chanSink forwards every message to a channel. After failAfter Line calls
// it starts returning errors.
type chanSink struct {
	ch        chan message
	lines     int
	failAfter int
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan message, 16), failAfter: -1}
}

func (s *chanSink) Status(status, msg string) error {
	s.ch <- message{kind: "status", status: status, text: msg}
	return nil
}

func (s *chanSink) Line(line string) error {
	if s.failAfter >= 0 && s.lines >= s.failAfter {
		return errors.New("peer gone")
	}
	s.lines++
	s.ch <- message{kind: "line", text: line}
	return nil
}

func (s *chanSink) Error(msg string) error {
	s.ch <- message{kind: "error", text: msg}
	return nil
}

func (s *chanSink) recv(t *testing.T) message {
	t.Helper()
	select {
	case m := <-s.ch:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message")
		return message{}
	}
}

func TestStream_NotFound(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.log")} {
		sink := newChanSink()
		if err := Stream(context.Background(), path, sink, Options{}); err != nil {
			t.Errorf("Stream(%q) = %v, want nil", path, err)
		}
		m := sink.recv(t)
		if m.kind != "status" || m.status != StatusNotFound {
			t.Errorf("Stream(%q) first message = %+v, want not_found status", path, m)
		}
		if len(sink.ch) != 0 {
			t.Errorf("Stream(%q) sent %d extra messages", path, len(sink.ch))
		}
	}
}

func TestStream_ForwardsOnlyNewLines(t *testing.T) {
	path := newLog(t, "one\ntwo\nthree\n")
	sink := newChanSink()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Stream(ctx, path, sink, Options{Interval: testInterval}) }()

	if m := sink.recv(t); m.status != StatusConnected {
		t.Fatalf("first message = %+v, want connected", m)
	}
	appendLog(t, path, "four\n")

	if m := sink.recv(t); m.kind != "line" || m.text != "four" {
		t.Errorf("message = %+v, want line four", m)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Stream after cancel = %v, want nil", err)
	}
	if len(sink.ch) != 0 {
		t.Errorf("unexpected extra messages: %d", len(sink.ch))
	}
}

func TestStream_SinkFailureEndsQuietly(t *testing.T) {
	path := newLog(t, "")
	sink := newChanSink()
	sink.failAfter = 1
	done := make(chan error, 1)
	go func() { done <- Stream(context.Background(), path, sink, Options{Interval: testInterval}) }()

	sink.recv(t)
	appendLog(t, path, "a\nb\n")
	if m := sink.recv(t); m.text != "a" {
		t.Errorf("line = %q, want a", m.text)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stream = %v, want nil on disconnect", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stream did not return after sink failure")
	}
}

func TestStream_OpenErrorAfterConnected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("a file used as a directory reports not-exist on windows")
	}
	notDir := newLog(t, "")
	sink := newChanSink()

	if err := Stream(context.Background(), filepath.Join(notDir, "Mai.log"), sink, Options{}); err == nil {
		t.Error("Stream = nil, want the open error")
	}
	if m := sink.recv(t); m.kind != "status" || m.status != StatusConnected {
		t.Errorf("first message = %+v, want connected status", m)
	}
	if m := sink.recv(t); m.kind != "error" || m.text == "" {
		t.Errorf("second message = %+v, want an error", m)
	}
}

func TestStream_ReadErrorEndsStream(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("an open log cannot be replaced on windows")
	}
	path := newLog(t, "")
	sink := newChanSink()
	done := make(chan error, 1)
	go func() { done <- Stream(context.Background(), path, sink, Options{Interval: testInterval}) }()

	if m := sink.recv(t); m.status != StatusConnected {
		t.Fatalf("first message = %+v, want connected", m)
	}

	// A directory in place of the log opens but cannot be read.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	if m := sink.recv(t); m.kind != "error" || m.text == "" {
		t.Errorf("message = %+v, want an error", m)
	}
	select {
	case err := <-done:
		if err == nil {
			t.Error("Stream = nil, want the read error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stream did not return after a read error")
	}
}
