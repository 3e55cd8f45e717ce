package cloudvar_client

import (
	"bytes"
	"encoding/json"
	"errors"
)

const (
	MethodHandshake = "handshake"
	MethodSet       = "set"
)

// Packet is one protocol record: a single JSON object, newline
// terminated on the wire. Empty fields are omitted entirely, never
// sent as null.
type Packet struct {
	Method    string `json:"method"`
	User      string `json:"user,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Value     string `json:"value,omitempty"`
}

// UnmarshalJSON accepts both value forms the service emits: a string,
// or a bare JSON number which is kept in its literal form.
func (p *Packet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Method    string          `json:"method"`
		User      string          `json:"user"`
		ProjectID string          `json:"project_id"`
		Name      string          `json:"name"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Method = raw.Method
	p.User = raw.User
	p.ProjectID = raw.ProjectID
	p.Name = raw.Name
	p.Value = ""
	if len(raw.Value) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		p.Value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Value, &n); err == nil {
		p.Value = n.String()
		return nil
	}
	return errors.New("value is neither string nor number")
}

// EncodePacket serializes one packet to its wire form.
func EncodePacket(p Packet) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeFrame splits a transport frame on newlines and parses each
// segment as one packet. Blank segments are discarded and malformed
// segments are dropped without failing the rest of the frame.
func DecodeFrame(frame []byte) []Packet {
	var packets []Packet
	for _, segment := range bytes.Split(frame, []byte{'\n'}) {
		if len(bytes.TrimSpace(segment)) == 0 {
			continue
		}
		var p Packet
		if err := json.Unmarshal(segment, &p); err != nil {
			continue
		}
		packets = append(packets, p)
	}
	return packets
}
