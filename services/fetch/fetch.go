// Package fetch implements the instrument's command language: short
// commands arriving as text lines from the console, dispatched to the
// io service over the bus. The line editor/transport is not ours; we
// take one line and return one printable reply.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/google/shlex"

	"marionette-go/bus"
	"marionette-go/errcode"
	"marionette-go/platform"
	"marionette-go/services/io/iomanage"
	"marionette-go/types"
	"marionette-go/x/strconvx"
)

// Version is reported by the version command.
const Version = "marionette-go 1.0"

const requestTimeout = time.Second

// I2CPins names the pads a configured I²C bus is wired to.
type I2CPins struct {
	Port string
	SCL  int
	SDA  int
}

// Config carries the board wiring the commands need.
type Config struct {
	I2C map[string]I2CPins // bus id -> pads
}

type Service struct {
	conn *bus.Connection
	i2c  platform.I2CBusFactory
	cfg  Config
}

func New(conn *bus.Connection, i2c platform.I2CBusFactory, cfg Config) *Service {
	return &Service{conn: conn, i2c: i2c, cfg: cfg}
}

const usage = `commands:
  pin request <port> <pad> <mode> <fn>
  pin status [<port> <pad>]
  pin reset
  i2c scan <bus>
  version
  help`

// Eval runs one command line and returns the printable reply.
func (s *Service) Eval(ctx context.Context, line string) string {
	tokens, err := shlex.Split(line)
	if err != nil {
		return errLine(errcode.BadArgs)
	}
	if len(tokens) == 0 {
		return ""
	}
	switch tokens[0] {
	case "pin":
		return s.evalPin(ctx, tokens[1:])
	case "i2c":
		return s.evalI2C(ctx, tokens[1:])
	case "version":
		return "ok: " + Version
	case "help":
		return usage
	default:
		return errLine(errcode.UnknownCommand)
	}
}

func (s *Service) evalPin(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return errLine(errcode.BadArgs)
	}
	switch args[0] {
	case "request":
		if len(args) != 5 {
			return errLine(errcode.BadArgs)
		}
		port, pad, ok := pinArgs(args[1], args[2])
		if !ok {
			return errLine(errcode.BadArgs)
		}
		reply, err := s.pinRequest(ctx, port, pad, args[3], args[4])
		if err != nil {
			return errLine(errcode.Timeout)
		}
		if !reply.OK {
			return "error: " + reply.Code
		}
		return "ok: " + formatPin(reply.Pin)

	case "status":
		switch len(args) {
		case 1:
			return s.snapshot(ctx)
		case 3:
			port, pad, ok := pinArgs(args[1], args[2])
			if !ok {
				return errLine(errcode.BadArgs)
			}
			reply, err := s.pinOp(ctx, port, pad, "status", nil)
			if err != nil {
				return errLine(errcode.Timeout)
			}
			if !reply.OK {
				return "error: " + reply.Code
			}
			return "ok: " + formatPin(reply.Pin)
		default:
			return errLine(errcode.BadArgs)
		}

	case "reset":
		if len(args) != 1 {
			return errLine(errcode.BadArgs)
		}
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(bus.T("io", "reset"), nil, false))
		if err != nil {
			return errLine(errcode.Timeout)
		}
		ack, ok := reply.Payload.(types.ResetAck)
		if !ok || !ack.OK {
			return errLine(errcode.Error)
		}
		return "ok: " + strconvx.Itoa(ack.Pins) + " pins reset"

	default:
		return errLine(errcode.UnknownCommand)
	}
}

func (s *Service) evalI2C(ctx context.Context, args []string) string {
	if len(args) != 2 || args[0] != "scan" {
		return errLine(errcode.BadArgs)
	}
	id := args[1]
	pins, ok := s.cfg.I2C[id]
	if !ok {
		return errLine(errcode.UnknownBus)
	}

	// A peripheral claims its pads before it drives them.
	for _, pad := range []int{pins.SCL, pins.SDA} {
		reply, err := s.pinRequest(ctx, pins.Port, pad, "alternate", "i2c")
		if err != nil {
			return errLine(errcode.Timeout)
		}
		if !reply.OK {
			return "error: " + reply.Code
		}
	}

	dev, ok := s.i2c.ByID(id)
	if !ok {
		return errLine(errcode.UnknownBus)
	}
	var found []string
	var rx [1]byte
	for addr := uint16(0x08); addr <= 0x77; addr++ {
		if err := dev.Tx(addr, nil, rx[:]); err == nil {
			found = append(found, "0x"+strconvx.FormatUint(uint64(addr), 16))
		}
	}
	if len(found) == 0 {
		return "ok: no devices"
	}
	return "ok: found " + strconvx.Itoa(len(found)) + ": " + strings.Join(found, " ")
}

func (s *Service) snapshot(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(bus.T("io", "status"), nil, false))
	if err != nil {
		return errLine(errcode.Timeout)
	}
	snap, ok := reply.Payload.(types.SnapshotReply)
	if !ok || !snap.OK {
		return errLine(errcode.Error)
	}
	var sb strings.Builder
	sb.WriteString("ok:")
	for _, port := range snap.Ports {
		for i := range port.Pins {
			sb.WriteString("\r\n  ")
			sb.WriteString(formatPin(&port.Pins[i]))
		}
	}
	return sb.String()
}

// pinRequest claims a pad via the io service.
func (s *Service) pinRequest(ctx context.Context, port string, pad int, mode, fn string) (types.PinReply, error) {
	return s.pinOp(ctx, port, pad, "request", types.PinRequest{Mode: mode, Fn: fn})
}

func (s *Service) pinOp(ctx context.Context, port string, pad int, op string, payload any) (types.PinReply, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	topic := bus.T("io", "pin", port, pad, op)
	reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(topic, payload, false))
	if err != nil {
		return types.PinReply{}, err
	}
	pr, ok := reply.Payload.(types.PinReply)
	if !ok {
		return types.PinReply{Code: string(errcode.InvalidPayload)}, nil
	}
	return pr, nil
}

// pinArgs normalizes the user's port/pad spelling to topic tokens.
func pinArgs(portArg, padArg string) (string, int, bool) {
	port, err := iomanage.ParsePort(portArg)
	if err != nil {
		return "", 0, false
	}
	pad, err := strconvx.Atoi(padArg)
	if err != nil || pad < 0 {
		return "", 0, false
	}
	return port.Token(), pad, true
}

func formatPin(p *types.PinState) string {
	if p == nil {
		return ""
	}
	out := p.Port + strconvx.Itoa(p.Pad) + " mode=" + p.Mode + " fn=" + p.Fn
	if len(p.Available) > 0 {
		out += " avail=" + strings.Join(p.Available, "|")
	}
	return out
}

func errLine(c errcode.Code) string { return "error: " + string(c) }
