package protocol

import (
	"encoding/json"
	"testing"
)

func TestRelayedPayloadIsVerbatim(t *testing.T) {
	// Field order, spacing and unknown fields must survive the envelope.
	raw := `{"sdp":"v=0\r\n","type":"offer","x-extra":[1,2.50,{"k":null}]}`

	in := &Message{Type: TypeMessage, RoomID: 1, From: "a", Payload: json.RawMessage(raw)}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Message
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(out.Payload) != raw {
		t.Fatalf("payload changed:\n got %s\nwant %s", out.Payload, raw)
	}
}

func TestNewOmitsEmptyPayload(t *testing.T) {
	b, _ := json.Marshal(New(TypeGetRooms, 0, nil))
	if string(b) != `{"type":"get_rooms"}` {
		t.Fatalf("encoded = %s", b)
	}
}

func TestNewError(t *testing.T) {
	msg := NewError(CodeNotFound, "room not found")

	var p ErrorPayload
	if err := msg.DecodePayload(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypeError || p.Code != CodeNotFound || p.Error != "room not found" {
		t.Fatalf("got %+v %+v", msg, p)
	}
}
