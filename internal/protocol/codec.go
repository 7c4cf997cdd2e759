/*
Package protocol
File: codec.go
Description:
    Envelope framing with JSON and MessagePack codecs.
*/

package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns envelopes into socket frames and back.
type Codec interface {
	Name() string
	Binary() bool // Frames go out as websocket binary messages
	Encode(t string, payload any) ([]byte, error)
	DecodeEnvelope(b []byte) (Envelope, error)
	unmarshal(data []byte, v any) error
}

// Envelope is a decoded frame whose payload has not been decoded yet.
type Envelope struct {
	T     string
	P     []byte
	codec Codec
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// CodecByName resolves the ?codec= query value. Empty means JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	}
	return nil, fmt.Errorf("protocol: unknown codec %q", name)
}

// DecodePayload decodes the payload of env into a T using the codec it arrived with.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("protocol: empty payload for type %q", env.T)
	}
	c := env.codec
	if c == nil {
		c = JSON
	}
	if err := c.unmarshal(env.P, &out); err != nil {
		return out, fmt.Errorf("protocol: decode %q payload: %w", env.T, err)
	}
	return out, nil
}

type jsonEnvelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("protocol: encode envelope with empty type")
	}
	var pb []byte
	if payload != nil {
		var err error
		if pb, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("protocol: encode %q payload: %w", t, err)
		}
	}
	return json.Marshal(jsonEnvelope{T: t, P: pb})
}

func (c jsonCodec) DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("protocol: decode empty frame")
	}
	var e jsonEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if e.T == "" {
		return Envelope{}, fmt.Errorf("protocol: envelope without type")
	}
	// "p": null carries nothing.
	p := []byte(e.P)
	if bytes.Equal(p, []byte("null")) {
		p = nil
	}
	return Envelope{T: e.T, P: p, codec: c}, nil
}

func (jsonCodec) unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackEnvelope struct {
	T string             `msgpack:"t"`
	P msgpack.RawMessage `msgpack:"p,omitempty"`
}

// msgpackCodec reuses the json struct tags so both codecs agree on field names.
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (c msgpackCodec) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("protocol: encode envelope with empty type")
	}
	var pb []byte
	if payload != nil {
		var err error
		if pb, err = c.marshal(payload); err != nil {
			return nil, fmt.Errorf("protocol: encode %q payload: %w", t, err)
		}
	}
	return msgpack.Marshal(&msgpackEnvelope{T: t, P: pb})
}

func (msgpackCodec) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c msgpackCodec) DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("protocol: decode empty frame")
	}
	var e msgpackEnvelope
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if e.T == "" {
		return Envelope{}, fmt.Errorf("protocol: envelope without type")
	}
	return Envelope{T: e.T, P: []byte(e.P), codec: c}, nil
}

func (msgpackCodec) unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
