// Package protocol defines the message envelope exchanged between whiteboard
// clients and the relay.
//
// Every message is a JSON object carrying a kind, the board it concerns and a
// kind-specific payload:
//
//	{"kind":"drawingUpdate","canvasId":"b1","payload":[{"id":0,"type":"LINE",...}]}
//
// Scoping by canvasId replaces per-board channel names: a receiver drops any
// envelope whose canvasId is not its current board.
//
// Element payloads always carry the entire element sequence. The protocol has
// no notion of partial updates.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
)

// Kind identifies a message type.
type Kind string

const (
	// client -> relay
	KindJoinCanvas    Kind = "joinCanvas"
	KindDrawingUpdate Kind = "drawingUpdate"
	KindCanvasShared  Kind = "canvasShared"

	// relay -> client
	KindLoadCanvas           Kind = "loadCanvas"
	KindReceiveDrawingUpdate Kind = "receiveDrawingUpdate"
	KindUnauthorized         Kind = "unauthorized"
	KindCanvasListUpdate     Kind = "canvasListUpdate"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindJoinCanvas, KindDrawingUpdate, KindCanvasShared,
		KindLoadCanvas, KindReceiveDrawingUpdate, KindUnauthorized, KindCanvasListUpdate:
		return true
	}
	return false
}

// Envelope is a single protocol message.
type Envelope struct {
	Kind     Kind            `json:"kind"`
	CanvasID string          `json:"canvasId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// UnauthorizedPayload explains why a board was denied.
type UnauthorizedPayload struct {
	Reason string `json:"reason"`
}

// SharedPayload announces that a board was shared with another user.
type SharedPayload struct {
	RecipientID string `json:"recipientId"`
}

// ListUpdatePayload tells a user their board list changed.
type ListUpdatePayload struct {
	UserID string `json:"userId"`
}

// Join builds a joinCanvas request.
func Join(canvasID string) Envelope {
	return Envelope{Kind: KindJoinCanvas, CanvasID: canvasID}
}

// Load builds the initial snapshot for a joining client.
func Load(canvasID string, elements []element.Element) (Envelope, error) {
	return withElements(KindLoadCanvas, canvasID, elements)
}

// Update builds a drawingUpdate carrying the sender's full element sequence.
func Update(canvasID string, elements []element.Element) (Envelope, error) {
	return withElements(KindDrawingUpdate, canvasID, elements)
}

// Receive builds the relayed form of a drawingUpdate.
func Receive(canvasID string, elements []element.Element) (Envelope, error) {
	return withElements(KindReceiveDrawingUpdate, canvasID, elements)
}

// Deny builds an unauthorized notice.
func Deny(canvasID, reason string) Envelope {
	return withPayload(KindUnauthorized, canvasID, UnauthorizedPayload{Reason: reason})
}

// Shared builds a canvasShared notice.
func Shared(canvasID, recipientID string) Envelope {
	return withPayload(KindCanvasShared, canvasID, SharedPayload{RecipientID: recipientID})
}

// ListUpdate builds a canvasListUpdate for userID.
func ListUpdate(userID string) Envelope {
	return withPayload(KindCanvasListUpdate, "", ListUpdatePayload{UserID: userID})
}

func withElements(kind Kind, canvasID string, elements []element.Element) (Envelope, error) {
	if elements == nil {
		elements = []element.Element{}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return Envelope{}, errors.Wrap(errors.ErrCodeInvalidMessage, err, "encode %s payload", kind)
	}
	return Envelope{Kind: kind, CanvasID: canvasID, Payload: data}, nil
}

// withPayload marshals small fixed-shape payloads that cannot fail to encode.
func withPayload(kind Kind, canvasID string, v any) Envelope {
	data, _ := json.Marshal(v)
	return Envelope{Kind: kind, CanvasID: canvasID, Payload: data}
}

// Encode serializes an envelope.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "encode %s", env.Kind)
	}
	return data, nil
}

// Decode parses and checks an envelope. Unknown kinds and board-scoped kinds
// without a canvasId are rejected with INVALID_MESSAGE.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode envelope")
	}
	if !env.Kind.Valid() {
		return Envelope{}, errors.New(errors.ErrCodeInvalidMessage, "unknown message kind %q", env.Kind)
	}
	if env.Kind != KindCanvasListUpdate && env.CanvasID == "" {
		return Envelope{}, errors.New(errors.ErrCodeInvalidMessage, "%s without canvasId", env.Kind)
	}
	return env, nil
}

// Elements decodes an element-sequence payload. A missing or null payload is
// an empty board. Elements are not validated; unknown types surface at render.
func (e Envelope) Elements() ([]element.Element, error) {
	elements := []element.Element{}
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return elements, nil
	}
	if err := json.Unmarshal(e.Payload, &elements); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode %s elements", e.Kind)
	}
	if elements == nil {
		elements = []element.Element{}
	}
	return elements, nil
}

// Unauthorized decodes an unauthorized payload. A missing payload yields an
// empty reason.
func (e Envelope) Unauthorized() UnauthorizedPayload {
	var p UnauthorizedPayload
	_ = json.Unmarshal(e.Payload, &p)
	return p
}

// Shared decodes a canvasShared payload.
func (e Envelope) Shared() (SharedPayload, error) {
	var p SharedPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil || p.RecipientID == "" {
		return p, errors.New(errors.ErrCodeInvalidMessage, "canvasShared needs a recipientId")
	}
	return p, nil
}

// ListUpdate decodes a canvasListUpdate payload.
func (e Envelope) ListUpdate() (ListUpdatePayload, error) {
	var p ListUpdatePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode canvasListUpdate")
	}
	return p, nil
}

func (e Envelope) String() string {
	return fmt.Sprintf("%s(%s, %d bytes)", e.Kind, e.CanvasID, len(e.Payload))
}
