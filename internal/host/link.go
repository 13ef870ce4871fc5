package host

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/detect"
	"github.com/bigbag/motorlink/internal/frame"
	"github.com/bigbag/motorlink/internal/protocol"
)

// maxReply bounds unterminated reply bytes held while waiting for an end
// marker. It fits the echo of the largest frame a device accepts.
const maxReply = 2 * protocol.MaxFrameCapacity

// ErrReplyTooLong is returned when a reply exceeds maxReply without ending.
var ErrReplyTooLong = errors.New("reply exceeds maximum length")

// Conn is the byte stream to one array. Read may return 0, nil when no
// data arrived within its own timeout.
type Conn interface {
	io.ReadWriter
}

// Link talks to one array.
type Link struct {
	name    string
	conn    Conn
	pending []byte
	chunk   []byte
	info    protocol.ReadyInfo
	log     *zap.Logger
}

// NewLink creates a link over conn. name identifies the port in logs.
func NewLink(name string, conn Conn, log *zap.Logger) *Link {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("port", name))
	return &Link{
		name:  name,
		conn:  conn,
		chunk: make([]byte, 256),
		log:   log,
	}
}

// Name returns the port name.
func (l *Link) Name() string {
	return l.name
}

// Info returns what the array announced when it connected.
func (l *Link) Info() protocol.ReadyInfo {
	return l.info
}

// ReadFrame blocks until a complete frame arrives or ctx is done. Bytes after
// the frame are kept for the next call.
func (l *Link) ReadFrame(ctx context.Context) (string, error) {
	for {
		payload, rest, ok := frame.ReadFrame(l.pending)
		if ok {
			text := string(payload)
			l.pending = append(l.pending[:0], rest...)
			l.log.Debug("frame received", zap.String("payload", text))
			return text, nil
		}
		l.pending = append(l.pending[:0], rest...)
		if len(l.pending) > maxReply {
			l.pending = l.pending[:0]
			return "", fmt.Errorf("read %s: %w", l.name, ErrReplyTooLong)
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := l.conn.Read(l.chunk)
		if n > 0 {
			l.pending = append(l.pending, l.chunk[:n]...)
		}
		if err != nil && n == 0 {
			return "", fmt.Errorf("read %s: %w", l.name, err)
		}
	}
}

// WaitReady waits for the array's ready announcement and records it.
func (l *Link) WaitReady(ctx context.Context) (protocol.ReadyInfo, error) {
	info, err := detect.WaitReady(ctx, l)
	if err != nil {
		return protocol.ReadyInfo{}, err
	}
	l.info = info
	l.log.Info("array ready", zap.Int("array", info.Array), zap.Int("motors", info.Motors))
	return info, nil
}

// Execute sends payload as one frame and waits for the array's reply.
func (l *Link) Execute(ctx context.Context, payload string) (protocol.Reply, error) {
	if _, err := l.conn.Write(frame.Encode(payload)); err != nil {
		return protocol.Reply{}, fmt.Errorf("write %s: %w", l.name, err)
	}
	l.log.Debug("sent", zap.String("payload", payload))

	text, err := l.ReadFrame(ctx)
	if err != nil {
		return protocol.Reply{}, err
	}

	reply := protocol.ClassifyReply(text)
	l.log.Debug("received", zap.String("reply", text), zap.Stringer("status", reply.Status))
	return reply, reply.Err()
}
