package logtail

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Status values sent as the first message of a stream.
const (
	StatusConnected = "connected"
	StatusNotFound  = "not_found"
)

// Messages shown by the management UI.
const (
	msgNotFound  = "未找到日志文件"
	msgConnected = "已连接到日志流"
	msgReadError = "读取日志时发生错误: %v"
)

// Sink receives the messages of one stream. A Sink error means the peer is
// gone.
type Sink interface {
	Status(status, message string) error
	Line(line string) error
	Error(message string) error
}

// Stream tails path into sink until ctx is done, the sink fails or reading
// fails. An empty or missing path sends a not_found status and returns nil.
// A disconnect is not an error. Open and read errors are reported to the
// sink on a best-effort basis, after the connected status, and returned.
func Stream(ctx context.Context, path string, sink Sink, opts Options) error {
	if path == "" {
		_ = sink.Status(StatusNotFound, msgNotFound)
		return nil
	}

	t, err := Open(path, opts)
	if errors.Is(err, os.ErrNotExist) {
		_ = sink.Status(StatusNotFound, msgNotFound)
		return nil
	}
	if err != nil {
		// The first message of a stream is always a status.
		if serr := sink.Status(StatusConnected, msgConnected); serr != nil {
			return nil
		}
		_ = sink.Error(fmt.Sprintf(msgReadError, err))
		return err
	}
	defer t.Close()

	// The cursor is already at EOF, so lines appended after this status
	// are never missed.
	if err := sink.Status(StatusConnected, msgConnected); err != nil {
		return nil
	}

	for {
		line, err := t.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			_ = sink.Error(fmt.Sprintf(msgReadError, err))
			return err
		}
		if err := sink.Line(line); err != nil {
			return nil
		}
	}
}
