package io

import (
	"context"
	"testing"
	"time"

	"marionette-go/bus"
	"marionette-go/services/io/iomanage"
	"marionette-go/types"
)

type nullPAL struct{ calls int }

func (p *nullPAL) SetPinMode(iomanage.Port, uint8, iomanage.Mode) { p.calls++ }

func startService(t *testing.T) (*bus.Bus, context.CancelFunc) {
	t.Helper()
	tables := []*iomanage.PortTable{
		{
			Port: iomanage.PortA,
			Pins: []iomanage.PinRecord{
				{Pad: 0, DefaultMode: iomanage.ModeInput, DefaultFn: iomanage.FnGPIO,
					Available: iomanage.FnGPIO | iomanage.FnADC},
				{Pad: 1, DefaultMode: iomanage.ModeInput, DefaultFn: iomanage.FnGPIO,
					Available: iomanage.FnGPIO},
			},
		},
	}
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	svc := New(b.NewConnection("io"), iomanage.New(&nullPAL{}, tables...))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b, cancel
}

func request(t *testing.T, c *bus.Connection, topic bus.Topic, payload any) *bus.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := c.RequestWait(ctx, c.NewMessage(topic, payload, false))
	if err != nil {
		t.Fatalf("RequestWait(%v): %v", topic, err)
	}
	return reply
}

func TestService_RequestCommitsAndPublishesState(t *testing.T) {
	b, cancel := startService(t)
	defer cancel()
	c := b.NewConnection("test")

	reply := request(t, c, bus.T("io", "pin", "pa", 0, "request"),
		types.PinRequest{Mode: "analog", Fn: "adc"})

	pr, ok := reply.Payload.(types.PinReply)
	if !ok || !pr.OK {
		t.Fatalf("unexpected reply: %#v", reply.Payload)
	}
	if pr.Pin == nil || pr.Pin.Fn != "adc" || pr.Pin.Mode != "analog" {
		t.Fatalf("unexpected pin state in reply: %#v", pr.Pin)
	}

	// The retained state document reflects the commit.
	sub := c.Subscribe(bus.Topic{"io", "pin", "pa", 0, "state"})
	defer c.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		st, ok := m.Payload.(types.PinState)
		if !ok || st.Fn != "adc" {
			t.Fatalf("unexpected retained state: %#v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained state delivered")
	}
}

func TestService_RejectionCodes(t *testing.T) {
	b, cancel := startService(t)
	defer cancel()
	c := b.NewConnection("test")

	cases := []struct {
		topic   bus.Topic
		payload any
		code    string
	}{
		{bus.T("io", "pin", "pa", 1, "request"), types.PinRequest{Mode: "alternate", Fn: "spi"}, "fn_not_available"},
		{bus.T("io", "pin", "pz", 0, "request"), types.PinRequest{Mode: "input", Fn: "gpio"}, "invalid_port"},
		{bus.T("io", "pin", "pb", 0, "request"), types.PinRequest{Mode: "input", Fn: "gpio"}, "unknown_port"},
		{bus.T("io", "pin", "pa", 9, "request"), types.PinRequest{Mode: "input", Fn: "gpio"}, "unknown_pin"},
		{bus.T("io", "pin", "pa", 0, "request"), types.PinRequest{Mode: "wavy", Fn: "gpio"}, "invalid_mode"},
		{bus.T("io", "pin", "pa", 0, "request"), types.PinRequest{Mode: "input", Fn: "laser"}, "invalid_fn"},
		{bus.T("io", "pin", "pa", 0, "request"), "not a struct", "invalid_payload"},
	}
	for _, tc := range cases {
		reply := request(t, c, tc.topic, tc.payload)
		pr, ok := reply.Payload.(types.PinReply)
		if !ok {
			t.Fatalf("%v: unexpected reply type %#v", tc.topic, reply.Payload)
		}
		if pr.OK || pr.Code != tc.code {
			t.Fatalf("%v: got ok=%v code=%q, want code %q", tc.topic, pr.OK, pr.Code, tc.code)
		}
	}
}

func TestService_StatusAndSnapshot(t *testing.T) {
	b, cancel := startService(t)
	defer cancel()
	c := b.NewConnection("test")

	reply := request(t, c, bus.T("io", "pin", "pa", 1, "status"), nil)
	pr := reply.Payload.(types.PinReply)
	if !pr.OK || pr.Pin == nil || pr.Pin.Fn != "gpio" || pr.Pin.Port != "PA" {
		t.Fatalf("unexpected status: %#v", pr.Pin)
	}

	reply = request(t, c, bus.T("io", "status"), nil)
	snap, ok := reply.Payload.(types.SnapshotReply)
	if !ok || !snap.OK || len(snap.Ports) != 1 || len(snap.Ports[0].Pins) != 2 {
		t.Fatalf("unexpected snapshot: %#v", reply.Payload)
	}
}

func TestService_ResetRestoresDefaults(t *testing.T) {
	b, cancel := startService(t)
	defer cancel()
	c := b.NewConnection("test")

	request(t, c, bus.T("io", "pin", "pa", 0, "request"),
		types.PinRequest{Mode: "analog", Fn: "adc"})

	reply := request(t, c, bus.T("io", "reset"), nil)
	ack, ok := reply.Payload.(types.ResetAck)
	if !ok || !ack.OK || ack.Pins != 2 {
		t.Fatalf("unexpected reset ack: %#v", reply.Payload)
	}

	reply = request(t, c, bus.T("io", "pin", "pa", 0, "status"), nil)
	pr := reply.Payload.(types.PinReply)
	if pr.Pin.Fn != "gpio" || pr.Pin.Mode != "input" {
		t.Fatalf("reset did not restore defaults: %#v", pr.Pin)
	}
}
