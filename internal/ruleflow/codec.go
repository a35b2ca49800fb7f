package ruleflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope carries the discriminating tag of an action on the wire.
type envelope struct {
	Type ActionType `json:"type"`
}

// MarshalAction encodes an action as a flat JSON object with a "type" tag:
//
//	{"type":"MOVE_PACKAGE","id":"p1","direction":"up"}
func MarshalAction(a Action) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal action %s: %w", a.Type(), err)
	}
	head, err := json.Marshal(envelope{Type: a.Type()})
	if err != nil {
		return nil, fmt.Errorf("marshal action %s: %w", a.Type(), err)
	}
	if bytes.Equal(body, []byte("{}")) {
		return head, nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}

// DecodeAction parses the wire form produced by MarshalAction.
// An unrecognized tag yields an error wrapping ErrUnknownAction.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("decode action %q: %w", env.Type, ErrUnknownAction)
	}
	a, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode action %s: %w", env.Type, err)
	}
	return a, nil
}

// DecodeActions parses a JSON array of wire actions.
func DecodeActions(data []byte) ([]Action, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	out := make([]Action, 0, len(raws))
	for i, raw := range raws {
		a, err := DecodeAction(raw)
		if err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func decodeAs[T Action](data []byte) (Action, error) {
	var a T
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return a, nil
}

var decoders = map[ActionType]func([]byte) (Action, error){
	ActionAddPackage:             decodeAs[AddPackage],
	ActionUpdatePackage:          decodeAs[UpdatePackage],
	ActionDeletePackage:          decodeAs[DeletePackage],
	ActionMovePackage:            decodeAs[MovePackage],
	ActionReorderPackage:         decodeAs[ReorderPackage],
	ActionAddRule:                decodeAs[AddRule],
	ActionUpdateRule:             decodeAs[UpdateRule],
	ActionDeleteRule:             decodeAs[DeleteRule],
	ActionMoveRule:               decodeAs[MoveRule],
	ActionUpdateRuleFreeCode:     decodeAs[UpdateRuleFreeCode],
	ActionAddOutputAssignment:    decodeAs[AddOutputAssignment],
	ActionUpdateOutputAssignment: decodeAs[UpdateOutputAssignment],
	ActionDeleteOutputAssignment: decodeAs[DeleteOutputAssignment],
}
