package types

// ---- io service payloads ----

// PinRequest asks the io service to claim a pad for a function.
type PinRequest struct {
	Mode string `json:"mode"`
	Fn   string `json:"fn"`
}

// PinState is the retained per-pad state document, published on
// io/pin/<port>/<pad>/state after every committed change.
type PinState struct {
	Port        string   `json:"port"`
	Pad         int      `json:"pad"`
	Mode        string   `json:"mode"`
	Fn          string   `json:"fn"`
	DefaultMode string   `json:"default_mode"`
	DefaultFn   string   `json:"default_fn"`
	Available   []string `json:"available,omitempty"`
}

// PinReply answers pin request/status messages.
type PinReply struct {
	OK   bool      `json:"ok"`
	Code string    `json:"code,omitempty"`
	Pin  *PinState `json:"pin,omitempty"`
}

// PortState groups the pads of one port for whole-registry status.
type PortState struct {
	Port string     `json:"port"`
	Pins []PinState `json:"pins"`
}

// SnapshotReply answers io/status requests.
type SnapshotReply struct {
	OK    bool        `json:"ok"`
	Ports []PortState `json:"ports"`
}

// ResetAck answers io/reset requests.
type ResetAck struct {
	OK   bool `json:"ok"`
	Pins int  `json:"pins"`
}

// ---- heartbeat ----

// HeartbeatConfig is supplied on the "config/heartbeat" topic.
type HeartbeatConfig struct {
	IntervalMS int `json:"interval_ms"`
}
