package cache

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// ValkeyConfig holds connection parameters for a Valkey/Redis-compatible server.
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

func (c *ValkeyConfig) applyDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 2 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 500 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 500 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
}

// ValkeyProvider implements Provider over RESP2. Each command uses a fresh
// connection, so the provider holds no socket state between calls.
type ValkeyProvider struct {
	cfg ValkeyConfig
}

// NewValkeyProvider validates cfg and pings the server so bad credentials fail at startup.
func NewValkeyProvider(cfg ValkeyConfig) (*ValkeyProvider, error) {
	if cfg.Addr == "" {
		return nil, errors.New("valkey addr is required")
	}
	cfg.applyDefaults()
	p := &ValkeyProvider{cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	reply, err := p.do(ctx, "PING")
	if err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}
	if reply.kind != '+' || reply.str() != "PONG" {
		return nil, fmt.Errorf("unexpected PING reply %q", reply.str())
	}
	return p, nil
}

// Get fetches a value, returning ErrCacheMiss when the key is absent.
func (p *ValkeyProvider) Get(ctx context.Context, key string) ([]byte, error) {
	reply, err := p.do(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	switch {
	case reply.null:
		return nil, ErrCacheMiss
	case reply.kind == '$':
		return reply.data, nil
	default:
		return nil, fmt.Errorf("unexpected GET reply type %q", reply.kind)
	}
}

// Set stores value with a millisecond TTL when ttl is positive.
func (p *ValkeyProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	reply, err := p.do(ctx, setArgs(key, value, ttl)...)
	if err != nil {
		return err
	}
	if reply.kind != '+' || reply.str() != "OK" {
		return fmt.Errorf("unexpected SET reply %q", reply.str())
	}
	return nil
}

// SetNX stores value only if key does not exist.
func (p *ValkeyProvider) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	reply, err := p.do(ctx, append(setArgs(key, value, ttl), "NX")...)
	if err != nil {
		return false, err
	}
	if reply.null {
		return false, nil
	}
	return reply.kind == '+', nil
}

// Del removes key.
func (p *ValkeyProvider) Del(ctx context.Context, key string) error {
	_, err := p.do(ctx, "DEL", key)
	return err
}

// Close is a no-op; connections are per command.
func (p *ValkeyProvider) Close() error { return nil }

func setArgs(key string, value []byte, ttl time.Duration) []any {
	args := []any{"SET", key, value}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	return args
}

// do runs one command, retrying transient network errors with exponential backoff.
func (p *ValkeyProvider) do(ctx context.Context, args ...any) (respValue, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return respValue{}, err
		}
		reply, err := p.once(ctx, args)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
		select {
		case <-ctx.Done():
			return respValue{}, ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * 25 * time.Millisecond):
		}
	}
	return respValue{}, lastErr
}

func (p *ValkeyProvider) once(ctx context.Context, args []any) (respValue, error) {
	conn, err := p.dial(ctx)
	if err != nil {
		return respValue{}, err
	}
	defer conn.Close()

	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	exchange := func(cmd ...any) (respValue, error) {
		if err := conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout)); err != nil {
			return respValue{}, err
		}
		if err := writeCommand(rw.Writer, cmd...); err != nil {
			return respValue{}, err
		}
		if err := conn.SetReadDeadline(time.Now().Add(p.cfg.ReadTimeout)); err != nil {
			return respValue{}, err
		}
		return readValue(rw.Reader)
	}

	if p.cfg.Password != "" {
		auth := []any{"AUTH", p.cfg.Password}
		if p.cfg.Username != "" {
			auth = []any{"AUTH", p.cfg.Username, p.cfg.Password}
		}
		if reply, err := exchange(auth...); err != nil {
			return respValue{}, fmt.Errorf("valkey auth: %w", err)
		} else if !strings.EqualFold(reply.str(), "OK") {
			return respValue{}, fmt.Errorf("valkey auth: unexpected reply %q", reply.str())
		}
	}
	if p.cfg.DB > 0 {
		if _, err := exchange("SELECT", strconv.Itoa(p.cfg.DB)); err != nil {
			return respValue{}, fmt.Errorf("valkey select: %w", err)
		}
	}
	return exchange(args...)
}

func (p *ValkeyProvider) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: p.cfg.DialTimeout}
	if !p.cfg.TLS {
		return dialer.DialContext(ctx, "tcp", p.cfg.Addr)
	}
	host, _, err := net.SplitHostPort(p.cfg.Addr)
	if err != nil {
		host = p.cfg.Addr
	}
	td := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}}
	return td.DialContext(ctx, "tcp", p.cfg.Addr)
}

func retryable(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// respError is an error reply sent by the server.
type respError string

func (e respError) Error() string { return string(e) }

type respValue struct {
	kind byte
	data []byte
	null bool
}

func (v respValue) str() string { return string(v.data) }

func writeCommand(w *bufio.Writer, args ...any) error {
	fmt.Fprintf(w, "*%d\r\n", len(args))
	for _, arg := range args {
		var b []byte
		switch v := arg.(type) {
		case string:
			b = []byte(v)
		case []byte:
			b = v
		default:
			return fmt.Errorf("unsupported RESP argument %T", arg)
		}
		fmt.Fprintf(w, "$%d\r\n", len(b))
		w.Write(b)
		w.WriteString("\r\n")
	}
	return w.Flush()
}

func readValue(r *bufio.Reader) (respValue, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return respValue{}, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return respValue{}, errors.New("empty RESP line")
	}
	kind, body := line[0], line[1:]
	switch kind {
	case '+', ':':
		return respValue{kind: kind, data: []byte(body)}, nil
	case '-':
		return respValue{}, respError(body)
	case '_':
		return respValue{kind: kind, null: true}, nil
	case '$':
		size, err := strconv.Atoi(body)
		if err != nil {
			return respValue{}, fmt.Errorf("bad bulk length %q", body)
		}
		if size < 0 {
			return respValue{kind: kind, null: true}, nil
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return respValue{}, err
		}
		if buf[size] != '\r' || buf[size+1] != '\n' {
			return respValue{}, errors.New("invalid bulk string termination")
		}
		return respValue{kind: kind, data: buf[:size]}, nil
	default:
		return respValue{}, fmt.Errorf("unexpected RESP prefix %q", kind)
	}
}
