// Package io is the bus-facing face of the pin allocation manager: it
// owns the Manager, answers pin request/status/reset messages, and
// keeps a retained state document per pad.
package io

import (
	"context"
	"errors"

	"marionette-go/bus"
	"marionette-go/errcode"
	"marionette-go/services/io/ioerr"
	"marionette-go/services/io/iomanage"
	"marionette-go/types"
)

var (
	topicPinRequest = bus.Topic{"io", "pin", "+", "+", "request"}
	topicPinStatus  = bus.Topic{"io", "pin", "+", "+", "status"}
	topicSnapshot   = bus.Topic{"io", "status"}
	topicReset      = bus.Topic{"io", "reset"}
)

type Service struct {
	conn *bus.Connection
	mgr  *iomanage.Manager
}

func New(conn *bus.Connection, mgr *iomanage.Manager) *Service {
	return &Service{conn: conn, mgr: mgr}
}

// Start resets the registry to board defaults, publishes the initial
// retained states, and spawns the service loop. Subscriptions are in
// place before Start returns, so callers may request immediately.
func (s *Service) Start(ctx context.Context) error {
	reqSub := s.conn.Subscribe(topicPinRequest)
	statSub := s.conn.Subscribe(topicPinStatus)
	snapSub := s.conn.Subscribe(topicSnapshot)
	resetSub := s.conn.Subscribe(topicReset)

	s.mgr.ToDefaults()
	s.publishAll()

	go s.loop(ctx, reqSub, statSub, snapSub, resetSub)
	return nil
}

func (s *Service) loop(ctx context.Context, reqSub, statSub, snapSub, resetSub *bus.Subscription) {
	defer s.conn.Disconnect()
	for {
		select {
		case <-ctx.Done():
			println("Info: io service stopping")
			return
		case msg := <-reqSub.Channel():
			s.handleRequest(msg)
		case msg := <-statSub.Channel():
			s.handleStatus(msg)
		case msg := <-snapSub.Channel():
			s.handleSnapshot(msg)
		case msg := <-resetSub.Channel():
			s.handleReset(msg)
		}
	}
}

// pinAddr extracts (port, pad) from io/pin/<port>/<pad>/... topics.
func pinAddr(t bus.Topic) (iomanage.Port, uint8, error) {
	if t.Len() < 5 {
		return 0, 0, errcode.InvalidTopic
	}
	name, ok := t.At(2).(string)
	if !ok {
		return 0, 0, errcode.InvalidTopic
	}
	port, err := iomanage.ParsePort(name)
	if err != nil {
		return 0, 0, err
	}
	pad, ok := asInt(t.At(3))
	if !ok || pad < 0 || pad > 255 {
		return 0, 0, errcode.InvalidTopic
	}
	return port, uint8(pad), nil
}

func (s *Service) handleRequest(msg *bus.Message) {
	port, pad, err := pinAddr(msg.Topic)
	if err != nil {
		s.replyErr(msg, err)
		return
	}
	req, ok := msg.Payload.(types.PinRequest)
	if !ok {
		s.replyErr(msg, errcode.InvalidPayload)
		return
	}
	mode, err := iomanage.ParseMode(req.Mode)
	if err != nil {
		s.replyErr(msg, err)
		return
	}
	fn, err := iomanage.ParseFn(req.Fn)
	if err != nil {
		s.replyErr(msg, err)
		return
	}
	if err := s.mgr.Request(port, pad, mode, fn); err != nil {
		s.replyErr(msg, err)
		return
	}
	st, _ := s.mgr.Status(port, pad)
	s.publishState(st)
	state := stateOf(st)
	s.conn.Reply(msg, types.PinReply{OK: true, Pin: &state}, false)
}

func (s *Service) handleStatus(msg *bus.Message) {
	port, pad, err := pinAddr(msg.Topic)
	if err != nil {
		s.replyErr(msg, err)
		return
	}
	st, err := s.mgr.Status(port, pad)
	if err != nil {
		s.replyErr(msg, err)
		return
	}
	state := stateOf(st)
	s.conn.Reply(msg, types.PinReply{OK: true, Pin: &state}, false)
}

func (s *Service) handleSnapshot(msg *bus.Message) {
	snap := s.mgr.Snapshot()
	out := types.SnapshotReply{OK: true, Ports: make([]types.PortState, 0, len(snap))}
	for _, ps := range snap {
		p := types.PortState{Port: ps.Port.String(), Pins: make([]types.PinState, 0, len(ps.Pins))}
		for _, pin := range ps.Pins {
			p.Pins = append(p.Pins, stateOf(pin))
		}
		out.Ports = append(out.Ports, p)
	}
	s.conn.Reply(msg, out, false)
}

func (s *Service) handleReset(msg *bus.Message) {
	s.mgr.ToDefaults()
	n := s.publishAll()
	s.conn.Reply(msg, types.ResetAck{OK: true, Pins: n}, false)
}

// publishAll refreshes every pad's retained state; returns the pin count.
func (s *Service) publishAll() int {
	n := 0
	for _, ps := range s.mgr.Snapshot() {
		for _, pin := range ps.Pins {
			s.publishState(pin)
			n++
		}
	}
	return n
}

func (s *Service) publishState(st iomanage.PinStatus) {
	topic := bus.T("io", "pin", st.Port.Token(), int(st.Pad), "state")
	s.conn.Publish(s.conn.NewMessage(topic, stateOf(st), true))
}

func stateOf(st iomanage.PinStatus) types.PinState {
	return types.PinState{
		Port:        st.Port.String(),
		Pad:         int(st.Pad),
		Mode:        st.Mode.String(),
		Fn:          st.Fn.String(),
		DefaultMode: st.DefaultMode.String(),
		DefaultFn:   st.DefaultFn.String(),
		Available:   st.Available.Names(),
	}
}

func (s *Service) replyErr(msg *bus.Message, err error) {
	s.conn.Reply(msg, types.PinReply{OK: false, Code: string(codeOf(err))}, false)
}

// codeOf maps allocator and parse errors to stable bus codes.
func codeOf(err error) errcode.Code {
	switch {
	case err == nil:
		return errcode.OK
	case errors.Is(err, ioerr.ErrUnknownPort):
		return errcode.UnknownPort
	case errors.Is(err, ioerr.ErrUnknownPin):
		return errcode.UnknownPin
	case errors.Is(err, ioerr.ErrFnNotAvailable):
		return errcode.FnNotAvailable
	case errors.Is(err, ioerr.ErrInvalidPort):
		return errcode.InvalidPort
	case errors.Is(err, ioerr.ErrInvalidMode):
		return errcode.InvalidMode
	case errors.Is(err, ioerr.ErrInvalidFn):
		return errcode.InvalidFn
	default:
		return errcode.Of(err)
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	default:
		return 0, false
	}
}
