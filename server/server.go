package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/taostats-mcp/observe"
	"github.com/jonwraymond/taostats-mcp/tools"
)

// Defaults.
const (
	DefaultName        = "taostats-mcp"
	DefaultMaxInFlight = 8

	maxLineSize = 1024 * 1024
)

// Server is the MCP server over a tools registry.
type Server struct {
	tools       *tools.Registry
	middleware  *observe.Middleware
	logger      observe.Logger
	info        ServerInfo
	maxInFlight int

	exec observe.ExecuteFunc

	mu sync.Mutex // protects writes to the output stream
}

// Option configures a Server.
type Option func(*Server)

// WithMiddleware wraps every tool call with m.
func WithMiddleware(m *observe.Middleware) Option {
	return func(s *Server) {
		s.middleware = m
	}
}

// WithLogger sets the protocol logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.info.Version = v
		}
	}
}

// WithMaxInFlight bounds how many requests are handled concurrently.
func WithMaxInFlight(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInFlight = n
		}
	}
}

// New creates a server exposing reg.
func New(reg *tools.Registry, opts ...Option) *Server {
	s := &Server{
		tools:       reg,
		logger:      observe.NopLogger(),
		info:        ServerInfo{Name: DefaultName, Version: "dev"},
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(s)
	}

	call := func(ctx context.Context, tool observe.ToolMeta, input any) (any, error) {
		args, _ := input.(json.RawMessage)
		return s.tools.Call(ctx, tool.Name, args)
	}
	if s.middleware != nil {
		s.exec = s.middleware.Wrap(call)
	} else {
		s.exec = call
	}
	return s
}

// ServeStdio serves on stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads requests from r and writes responses to w until r is
// exhausted, ctx ends or a write fails. In-flight requests finish first.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxInFlight)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, maxLineSize), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- bytes.Clone(scanner.Bytes()):
			case <-gctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-gctx.Done():
			if err := g.Wait(); err != nil {
				return err
			}
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				if err := g.Wait(); err != nil {
					return err
				}
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read request: %w", err)
					}
					return nil
				default:
					return ctx.Err()
				}
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			g.Go(func() error {
				resp := s.dispatch(gctx, line)
				if resp == nil {
					return nil
				}
				if err := s.write(w, resp); err != nil {
					return fmt.Errorf("write response: %w", err)
				}
				return nil
			})
		}
	}
}

func (s *Server) dispatch(ctx context.Context, line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: CodeParseError, Message: "invalid JSON: " + err.Error()},
		}
	}

	// Notifications have no ID and get no response.
	if req.ID == nil {
		s.notification(ctx, req)
		return nil
	}

	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if req.JSONRPC != "2.0" || req.Method == "" {
		resp.Error = &RPCError{Code: CodeInvalidRequest, Message: "invalid request"}
		return resp
	}

	var (
		result any
		rpcErr *RPCError
	)
	switch req.Method {
	case "initialize":
		result, rpcErr = s.initialize(ctx, req.Params)
	case "ping":
		result = struct{}{}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, rpcErr = s.callTool(ctx, req.Params)
	default:
		rpcErr = &RPCError{Code: CodeMethodNotFound, Message: "unknown method: " + req.Method}
	}
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}

	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = &RPCError{Code: CodeInternalError, Message: err.Error()}
		return resp
	}
	resp.Result = data
	return resp
}

func (s *Server) notification(ctx context.Context, req Request) {
	switch req.Method {
	case "notifications/initialized":
		s.logger.Info(ctx, "client initialized")
	default:
		s.logger.Debug(ctx, "unhandled notification", observe.F("method", req.Method))
	}
}

func (s *Server) initialize(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
		}
	}
	s.logger.Info(ctx, "initialize",
		observe.F("client", p.ClientInfo.Name),
		observe.F("client_version", p.ClientInfo.Version),
		observe.F("protocol_version", p.ProtocolVersion),
	)

	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    ServerCapability{Tools: &ToolCapability{}},
		ServerInfo:      s.info,
	}, nil
}

func (s *Server) listTools() ListToolsResult {
	list := s.tools.List()
	out := ListToolsResult{Tools: make([]ToolDescriptor, 0, len(list))}
	for _, t := range list {
		out.Tools = append(out.Tools, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p CallToolParams
	if len(params) == 0 {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}
	if p.Name == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "missing tool name"}
	}

	t, ok := s.tools.Lookup(p.Name)
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "unknown tool: " + p.Name}
	}

	out, err := s.exec(ctx, t.Meta(), p.Arguments)
	if err != nil {
		if tools.IsValidation(err) {
			return textResult(err.Error(), true), nil
		}
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}

	text, err := json.Marshal(out)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: "encode result: " + err.Error()}
	}
	return textResult(string(text), false), nil
}

func (s *Server) write(w io.Writer, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = w.Write(data)
	return err
}
