package infrastructure

import (
	"encoding/json"
	"fmt"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// JSONCodec is the wire codec used by the websocket transport.
type JSONCodec struct{}

func (JSONCodec) Decode(raw []byte) (domain.Inbound, error) {
	var in domain.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return domain.Inbound{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	in.Type = domain.ParseEventKind(string(in.Type))
	return in, nil
}

func (JSONCodec) Encode(event domain.Event) ([]byte, error) {
	return json.Marshal(event)
}

var _ port.Codec = JSONCodec{}
