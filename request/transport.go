package request

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// phaseError tags a network timeout with the phase it happened in.
type phaseError struct {
	phase Phase
	err   error
}

func (e *phaseError) Error() string   { return string(e.phase) + " timeout: " + e.err.Error() }
func (e *phaseError) Unwrap() error   { return e.err }
func (e *phaseError) Timeout() bool   { return true }
func (e *phaseError) Temporary() bool { return false }

var _ net.Error = (*phaseError)(nil)

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// deadlineConn arms a fresh deadline before every read and write so each
// socket operation gets its own budget, independent of the others.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Read(b)
	if err != nil && isTimeout(err) {
		err = &phaseError{phase: PhaseRead, err: err}
	}
	return n, err
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Write(b)
	if err != nil && isTimeout(err) {
		err = &phaseError{phase: PhaseWrite, err: err}
	}
	return n, err
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// newTransport builds an http.Transport enforcing the connect, read and
// write budgets of cfg.
func newTransport(cfg Config) *http.Transport {
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	return dialTransport(cfg, dialer.DialContext)
}

// dialTransport is newTransport over an arbitrary dial function. The connect
// budget is applied to the dial context, so dial needs no timeout of its own.
func dialTransport(cfg Config, dial dialFunc) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialCtx := ctx
			if cfg.ConnectTimeout > 0 {
				var cancel context.CancelFunc
				dialCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
				defer cancel()
			}
			conn, err := dial(dialCtx, network, addr)
			if err != nil {
				// an expired caller context is a request timeout, not a connect one
				if isTimeout(err) && ctx.Err() == nil {
					return nil, &phaseError{phase: PhaseConnect, err: err}
				}
				return nil, err
			}
			return &deadlineConn{
				Conn:         conn,
				readTimeout:  cfg.ReadTimeout,
				writeTimeout: cfg.WriteTimeout,
			}, nil
		},
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		MaxConnsPerHost:       cfg.MaxConns,
		MaxIdleConns:          cfg.MaxConns,
		MaxIdleConnsPerHost:   cfg.MaxConns,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// timeoutPhase reports which phase a timeout error belongs to.
func timeoutPhase(err error) Phase {
	var pe *phaseError
	if errors.As(err, &pe) {
		return pe.phase
	}
	// net/http reports handshake expiry with its own error type
	if err != nil && containsFold(err.Error(), "TLS handshake timeout") {
		return PhaseConnect
	}
	return PhaseRead
}
