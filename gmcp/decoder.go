// Package gmcp decodes the out-of-band status protocol carried in telnet
// subnegotiation payloads and tracks the live vitals model derived from it.
package gmcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Recognized package names (matched case-insensitively).
const (
	PkgVitals   = "char.vitals"
	PkgMaxStats = "char.maxstats"
	PkgStatus   = "char.status"
	PkgChat     = "comm.channel"
)

// Event is the closed set of decoded status messages.
type Event interface {
	event()
}

// VitalsUpdate carries current values for a subset of tracked quantities.
type VitalsUpdate struct {
	Fields map[string]float64
}

// MaxStatsUpdate carries maxima for a subset of tracked quantities.
// Wire keys may carry a "max" prefix (maxhp); the decoder strips it so
// the quantity names line up with VitalsUpdate.
type MaxStatsUpdate struct {
	Fields map[string]float64
}

// StatusFlags carries named status flags, overwritten outright on apply.
type StatusFlags struct {
	Flags map[string]string
}

// ChatMessage is a decoded comm.channel payload, routed to the chat
// window instead of the vitals model.
type ChatMessage struct {
	Channel string
	Player  string
	Text    string
}

// Unknown preserves packages this client does not interpret (group and
// enemy data, room info) so they pass through unchanged.
type Unknown struct {
	Name string
	Raw  []byte
}

func (VitalsUpdate) event()   {}
func (MaxStatsUpdate) event() {}
func (StatusFlags) event()    {}
func (ChatMessage) event()    {}
func (Unknown) event()        {}

// DecodeError reports a payload whose body did not parse as the shape
// its package requires. Always recoverable: the caller drops the event
// and carries on.
type DecodeError struct {
	Package string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gmcp: decoding %s: %v", e.Package, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses one subnegotiation payload, already split by the
// transport into a package name and raw body. Decoding is pure; applying
// the result to the vitals model is the caller's step.
func Decode(name string, body []byte) (Event, error) {
	switch strings.ToLower(name) {
	case PkgVitals:
		fields, err := decodeNumbers(name, body)
		if err != nil {
			return nil, err
		}
		return VitalsUpdate{Fields: fields}, nil

	case PkgMaxStats:
		fields, err := decodeNumbers(name, body)
		if err != nil {
			return nil, err
		}
		normalized := make(map[string]float64, len(fields))
		for k, v := range fields {
			normalized[strings.TrimPrefix(k, "max")] = v
		}
		return MaxStatsUpdate{Fields: normalized}, nil

	case PkgStatus:
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &DecodeError{Package: name, Err: err}
		}
		flags := make(map[string]string, len(raw))
		for k, v := range raw {
			flags[k] = flagString(v)
		}
		return StatusFlags{Flags: flags}, nil

	case PkgChat:
		var msg struct {
			Chan   string `json:"chan"`
			Msg    string `json:"msg"`
			Player string `json:"player"`
		}
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, &DecodeError{Package: name, Err: err}
		}
		return ChatMessage{Channel: msg.Chan, Player: msg.Player, Text: msg.Msg}, nil

	default:
		return Unknown{Name: name, Raw: body}, nil
	}
}

// decodeNumbers parses a body as an object of numeric fields. Fields of
// the wrong type are skipped rather than failing the whole payload.
func decodeNumbers(name string, body []byte) (map[string]float64, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Package: name, Err: err}
	}
	fields := make(map[string]float64, len(raw))
	for k, v := range raw {
		switch n := v.(type) {
		case float64:
			fields[strings.ToLower(k)] = n
		case string:
			// Some servers quote their numbers.
			var f float64
			if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
				fields[strings.ToLower(k)] = f
			}
		}
	}
	return fields, nil
}

func flagString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
