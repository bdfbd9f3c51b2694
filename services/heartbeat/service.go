// Package heartbeat blinks the status LED and re-claims its pad through
// the io service whenever an io reset hands the pad back to the board
// defaults.
package heartbeat

import (
	"context"
	"time"

	"marionette-go/bus"
	"marionette-go/types"
)

var topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}

type Service struct {
	// LED pad address, in topic form (e.g. "pd", 14).
	LEDPort string
	LEDPad  int

	Interval time.Duration // 0 means 1s
}

// Start launches the heartbeat loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Interval <= 0 {
		s.Interval = time.Second
	}
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	// Retained state keeps us honest: if a reset (or anyone else) takes
	// the LED pad, the state document changes and we claim it back.
	stateSub := conn.Subscribe(bus.Topic{"io", "pin", s.LEDPort, s.LEDPad, "state"})
	defer conn.Unsubscribe(stateSub)

	s.claimLED(ctx, conn)

	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return

		case t := <-tick.C:
			println("Info:", t.Format("15:04:05"), "Heartbeat")

		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.PinState); ok && (st.Fn != "led" || st.Mode != "output") {
				s.claimLED(ctx, conn)
			}

		case msg := <-cfgSub.Channel():
			if cfg, ok := msg.Payload.(types.HeartbeatConfig); ok && cfg.IntervalMS > 0 {
				s.Interval = time.Duration(cfg.IntervalMS) * time.Millisecond
				tick.Reset(s.Interval)
				println("Info: heartbeat interval set to", cfg.IntervalMS, "ms")
			}
		}
	}
}

func (s *Service) claimLED(ctx context.Context, conn *bus.Connection) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	topic := bus.T("io", "pin", s.LEDPort, s.LEDPad, "request")
	req := conn.NewMessage(topic, types.PinRequest{Mode: "output", Fn: "led"}, false)
	reply, err := conn.RequestWait(ctx, req)
	if err != nil {
		println("Warn: heartbeat LED claim timed out")
		return
	}
	if pr, ok := reply.Payload.(types.PinReply); !ok || !pr.OK {
		println("Warn: heartbeat LED claim rejected")
	}
}
