// Package remote shares one process's state with cooperating worker
// processes over an explicit request/response channel.
//
// A Server owns a *state.State and serves get/set/delete/keys requests on a
// listener (typically a unix socket next to the state file); workers hold a
// Client stub exposing the same accessors. The transport is a strictly
// optional layer: the core state contract is unchanged, and all requests are
// serialized through the owner, which also makes the shared state safe to
// reach from many workers at once.
package remote

import (
	"encoding/gob"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quillfold/statekit/state"
)

type opCode uint8

const (
	opGet opCode = iota + 1
	opSet
	opDelete
	opContains
	opKeys
)

type request struct {
	Op    opCode
	Key   string
	Value any
}

type response struct {
	Value    any
	Keys     []string
	Found    bool
	NotFound bool
	Err      string
}

func init() {
	// Concrete types that may travel inside a request or response value.
	gob.Register(time.Time{})
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// Server serves state accessors to remote clients. Requests from all
// connections are serialized through one mutex, since the underlying State
// performs no locking of its own.
type Server struct {
	mu sync.Mutex
	st *state.State
}

// NewServer returns a server owning st. The caller must not mutate st
// concurrently while the server is running.
func NewServer(st *state.State) *Server {
	return &Server{st: st}
}

// Serve accepts connections on l until the listener is closed, handling each
// connection on its own goroutine.
func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	dec := gob.NewDecoder(conn)
	enc := gob.NewEncoder(conn)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			return
		}
		resp := s.dispatch(&req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req *request) *response {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp response
	switch req.Op {
	case opGet:
		v, err := s.st.Get(req.Key)
		switch {
		case state.IsNotFound(err):
			resp.NotFound = true
		case err != nil:
			resp.Err = err.Error()
		default:
			if _, ok := v.(*state.Substate); ok {
				// Section views are process-local; they cannot cross the wire.
				resp.Err = fmt.Sprintf("remote: %q is a section, fetch its leaves individually", req.Key)
			} else {
				resp.Value = v
			}
		}
	case opSet:
		if err := s.st.Set(req.Key, req.Value); err != nil {
			resp.Err = err.Error()
		}
	case opDelete:
		err := s.st.Delete(req.Key)
		switch {
		case state.IsNotFound(err):
			resp.NotFound = true
		case err != nil:
			resp.Err = err.Error()
		}
	case opContains:
		resp.Found = s.st.Contains(req.Key)
	case opKeys:
		resp.Keys = s.st.Keys()
	default:
		resp.Err = fmt.Sprintf("remote: unknown op %d", req.Op)
	}
	return &resp
}

// Client is a stub for a remote state owner. Safe for concurrent use; calls
// are serialized over one connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	enc  *gob.Encoder
	dec  *gob.Decoder
}

// Dial connects to a state server.
func Dial(network, addr string) (*Client, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", addr, err)
	}
	return &Client{
		conn: conn,
		enc:  gob.NewEncoder(conn),
		dec:  gob.NewDecoder(conn),
	}, nil
}

func (c *Client) call(req *request) (*response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("remote: send: %w", err)
	}
	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("remote: receive: %w", err)
	}
	if resp.Err != "" {
		return nil, errors.New(resp.Err)
	}
	return &resp, nil
}

// Get returns the value stored under key on the owner.
func (c *Client) Get(key string) (any, error) {
	resp, err := c.call(&request{Op: opGet, Key: key})
	if err != nil {
		return nil, err
	}
	if resp.NotFound {
		return nil, state.ErrNotFound
	}
	return resp.Value, nil
}

// Set stores value under key on the owner.
func (c *Client) Set(key string, value any) error {
	_, err := c.call(&request{Op: opSet, Key: key, Value: value})
	return err
}

// Delete tombstones key on the owner.
func (c *Client) Delete(key string) error {
	resp, err := c.call(&request{Op: opDelete, Key: key})
	if err != nil {
		return err
	}
	if resp.NotFound {
		return state.ErrNotFound
	}
	return nil
}

// Contains reports whether key resolves to a live leaf on the owner.
func (c *Client) Contains(key string) (bool, error) {
	resp, err := c.call(&request{Op: opContains, Key: key})
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}

// Keys returns the owner's live leaf paths.
func (c *Client) Keys() ([]string, error) {
	resp, err := c.call(&request{Op: opKeys})
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
