package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/logging"
)

var errClosed = errors.New("connection closed")

// handshakeTimeout bounds the wait for a reply to probe and start.
var handshakeTimeout = 5 * time.Second

// Client communicates with the speech daemon over a Unix socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// Connect dials the daemon Unix socket.
func Connect(ctx context.Context, socketPath string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to speech daemon: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand sends a command and reads one response line.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	if err := c.write(cmd); err != nil {
		return Response{}, err
	}

	var resp Response
	if err := c.read(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// Call sends cmd and waits for its reply. The wait ends early when ctx is
// cancelled or the daemon stays silent past the handshake timeout.
func (c *Client) Call(ctx context.Context, cmd Command) (Response, error) {
	if err := c.conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})

	resp, err := c.SendCommand(cmd)
	if !stop() {
		return Response{}, fmt.Errorf("%s cancelled: %w", cmd.Cmd, ctx.Err())
	}
	if err != nil {
		return Response{}, err
	}
	if err := c.conn.SetDeadline(time.Time{}); err != nil {
		return Response{}, fmt.Errorf("clear deadline: %w", err)
	}
	return resp, nil
}

// ReadMessage reads the next event line. Blocks until data arrives.
func (c *Client) ReadMessage() (Message, error) {
	var msg Message
	if err := c.read(&msg); err != nil {
		return Message{}, fmt.Errorf("read event: %w", err)
	}
	return msg, nil
}

func (c *Client) write(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

func (c *Client) read(dst any) error {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return err
		}
		return errClosed
	}
	return json.Unmarshal(c.scanner.Bytes(), dst)
}

// Recognizer implements capture.Recognizer on top of the speech daemon. Each
// recognition session uses its own connection.
type Recognizer struct {
	socketPath string
	logger     *slog.Logger
}

// NewRecognizer returns a recognizer for the daemon listening on socketPath.
func NewRecognizer(socketPath string, logger *slog.Logger) *Recognizer {
	return &Recognizer{socketPath: socketPath, logger: logging.Or(logger)}
}

// Supported asks the daemon whether it can recognize speech. An unreachable
// daemon means no support.
func (r *Recognizer) Supported(ctx context.Context) bool {
	c, err := Connect(ctx, r.socketPath)
	if err != nil {
		r.logger.Debug("Speech daemon unreachable", "socket", r.socketPath, "error", err)
		return false
	}
	defer c.Close()

	resp, err := c.Call(ctx, Command{Cmd: "probe"})
	if err != nil {
		r.logger.Debug("Speech daemon probe failed", "error", err)
		return false
	}
	return resp.OK && resp.Supported != nil && *resp.Supported
}

// Start opens a connection and begins a recognition session.
func (r *Recognizer) Start(ctx context.Context, opts capture.Options) (capture.Session, error) {
	c, err := Connect(ctx, r.socketPath)
	if err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, Command{
		Cmd:            "start",
		Locale:         opts.Locale,
		Continuous:     BoolPtr(opts.Continuous),
		InterimResults: BoolPtr(opts.InterimResults),
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	if !resp.OK {
		c.Close()
		return nil, fmt.Errorf("speech daemon refused to start: %s", resp.Error)
	}

	s := &session{
		client: c,
		events: make(chan capture.Event),
		done:   make(chan struct{}),
		logger: r.logger,
	}
	go s.readLoop()
	return s, nil
}

type session struct {
	client   *Client
	events   chan capture.Event
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

func (s *session) Events() <-chan capture.Event {
	return s.events
}

// Stop asks the daemon to end the session and closes the connection. The
// event channel is closed once the reader notices.
func (s *session) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if werr := s.client.write(Command{Cmd: "stop"}); werr != nil {
			s.logger.Debug("Speech stop command failed", "error", werr)
		}
		if cerr := s.client.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})
	return err
}

func (s *session) readLoop() {
	defer close(s.events)
	defer s.client.Close()

	for {
		msg, err := s.client.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Debug("Speech session ended unexpectedly", "error", err)
			}
			return
		}

		var ev capture.Event
		switch msg.Event {
		case EventResult:
			ev = capture.Event{Kind: capture.EventResult, ResultIndex: msg.ResultIndex, Results: msg.Results}
		case EventError:
			ev = capture.Event{Kind: capture.EventError, Code: capture.ErrorCode(msg.Error)}
		case EventEnd:
			return
		default:
			s.logger.Debug("Ignoring unknown speech event", "event", msg.Event)
			continue
		}

		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}
