package transport

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"net"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

// PayloadKind tags an Envelope's contents: Register announces a remote peer
// id on first contact, Route carries a forwarded Request/Reply pair
// thereafter.
type PayloadKind int

const (
	PayloadRegister PayloadKind = iota
	PayloadRoute
)

// WireRequest is the gob-safe, channel-free projection of Request used on
// the wire: Request.ReplyCh only makes sense in-process, so the wire form
// drops it and the receiving Session manufactures a fresh local reply path.
type WireRequest struct {
	Op            Op
	ReservationId ids.ReservationId
	RangeStart    int64
	RangeEnd      int64
}

// WireReply is the gob-safe projection of Reply: the `error` interface
// field doesn't round-trip through gob without registering every concrete
// error type that might appear, so the wire form flattens it to a string.
type WireReply struct {
	Probe      ProbeResult
	State      int
	LoadMetric LoadMetricResult
	Float      float64
	RouterList []ids.RouterId
	Bool       bool
	ErrString  string
}

func toWireReply(r Reply) WireReply {
	w := WireReply{
		Probe:      r.Probe,
		State:      int(r.State),
		LoadMetric: r.LoadMetric,
		Float:      r.Float,
		RouterList: r.RouterList,
		Bool:       r.Bool,
	}
	if r.Err != nil {
		w.ErrString = r.Err.Error()
	}
	return w
}

func fromWireReply(w WireReply) Reply {
	r := Reply{
		Probe:      w.Probe,
		State:      model.State(w.State),
		LoadMetric: w.LoadMetric,
		Float:      w.Float,
		RouterList: w.RouterList,
		Bool:       w.Bool,
	}
	if w.ErrString != "" {
		r.Err = fmt.Errorf("%s", w.ErrString)
	}
	return r
}

// Envelope is the remote (cross-process) transport frame.
type Envelope struct {
	TargetId ids.ComponentId
	SenderId ids.ComponentId
	Kind     PayloadKind
	Req      *WireRequest
	Reply    *WireReply
}

// WriteEnvelope writes e to w as a length-prefixed gob frame.
func WriteEnvelope(w io.Writer, e *Envelope) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return fmt.Errorf("transport: encode envelope: %w", err)
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(buf.Len()))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadEnvelope reads one length-prefixed gob frame from r.
func ReadEnvelope(r *bufio.Reader) (*Envelope, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	var e Envelope
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&e); err != nil {
		return nil, fmt.Errorf("transport: decode envelope: %w", err)
	}
	return &e, nil
}

// Session owns one remote connection: on the first Register payload it
// learns the peer's component id, then forwards subsequent payloads to the
// local Registry.
type Session struct {
	conn     net.Conn
	registry *Registry
	peerId   ids.ComponentId
}

func NewSession(conn net.Conn, registry *Registry) *Session {
	return &Session{conn: conn, registry: registry}
}

// Serve reads envelopes until the connection closes or a fatal decode error
// occurs, routing Route payloads to the local mailbox named by TargetId.
func (s *Session) Serve() error {
	r := bufio.NewReader(s.conn)
	for {
		env, err := ReadEnvelope(r)
		if err != nil {
			return err
		}
		switch env.Kind {
		case PayloadRegister:
			s.peerId = env.SenderId
		case PayloadRoute:
			proxy, err := s.registry.Lookup(env.TargetId)
			if err != nil {
				continue // unknown local target; drop silently, peer will time out
			}
			if env.Req != nil {
				local := &Request{
					Op:            env.Req.Op,
					ReservationId: env.Req.ReservationId,
					RangeStart:    env.Req.RangeStart,
					RangeEnd:      env.Req.RangeEnd,
					ReplyCh:       make(chan Reply, 1),
				}
				proxy.reqCh <- local
				go s.replyWhenReady(local, env.SenderId)
			}
		}
	}
}

// replyWhenReady waits for the routed request's local reply and writes it
// back to the remote sender as a Route envelope carrying the WireReply.
func (s *Session) replyWhenReady(local *Request, senderId ids.ComponentId) {
	reply := <-local.ReplyCh
	wire := toWireReply(reply)
	_ = WriteEnvelope(s.conn, &Envelope{
		TargetId: senderId,
		SenderId: s.peerId,
		Kind:     PayloadRoute,
		Reply:    &wire,
	})
}
