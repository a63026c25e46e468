package state

import (
	"encoding/json"
	"fmt"
)

// envelope is the wire form of one change.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type compositeData struct {
	Inverted bool       `json:"inverted,omitempty"`
	Changes  []envelope `json:"changes"`
}

var leafChanges = map[string]func() Change{
	"owner":               func() Change { return &ownerChange{} },
	"add_units":           func() Change { return &addUnitsChange{} },
	"remove_units":        func() Change { return &removeUnitsChange{} },
	"transfer":            func() Change { return &transferChange{} },
	"unit_property":       func() Change { return &unitPropertyChange{} },
	"transport":           func() Change { return &transportChange{} },
	"resources":           func() Change { return &resourceChange{} },
	"attachment_property": func() Change { return &attachmentPropertyChange{} },
	"relationship":        func() Change { return &relationshipChange{} },
	"step":                func() Change { return &stepChange{} },
	"battle_record":       func() Change { return &battleRecordChange{} },
	"frontier":            func() Change { return &frontierChange{} },
}

// MarshalChange encodes c, including nested composites, as JSON.
func MarshalChange(c Change) ([]byte, error) {
	env, err := encode(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalChange decodes a change written by MarshalChange.
func UnmarshalChange(data []byte) (Change, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode change envelope: %w", err)
	}
	return decode(env)
}

func encode(c Change) (envelope, error) {
	if comp, ok := c.(*CompositeChange); ok {
		data := compositeData{Inverted: comp.inverted, Changes: make([]envelope, 0, len(comp.changes))}
		for _, ch := range comp.changes {
			env, err := encode(ch)
			if err != nil {
				return envelope{}, err
			}
			data.Changes = append(data.Changes, env)
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return envelope{}, fmt.Errorf("encode composite: %w", err)
		}
		return envelope{Type: comp.ChangeType(), Data: raw}, nil
	}

	if inv, ok := c.(*inverseChange); ok {
		of, err := encode(inv.of)
		if err != nil {
			return envelope{}, err
		}
		raw, err := json.Marshal(of)
		if err != nil {
			return envelope{}, fmt.Errorf("encode inverse: %w", err)
		}
		return envelope{Type: inv.ChangeType(), Data: raw}, nil
	}

	changeType := ChangeTypeOf(c)
	if _, ok := leafChanges[changeType]; !ok {
		return envelope{}, fmt.Errorf("encode %T: %w", c, ErrUnknownChangeType)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return envelope{}, fmt.Errorf("encode %s: %w", changeType, err)
	}
	return envelope{Type: changeType, Data: raw}, nil
}

func decode(env envelope) (Change, error) {
	if env.Type == "composite" {
		var data compositeData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode composite: %w", err)
		}
		comp := &CompositeChange{inverted: data.Inverted, changes: make([]Change, 0, len(data.Changes))}
		for i, childEnv := range data.Changes {
			child, err := decode(childEnv)
			if err != nil {
				return nil, fmt.Errorf("composite child %d: %w", i, err)
			}
			comp.changes = append(comp.changes, child)
		}
		return comp, nil
	}

	if env.Type == "inverse" {
		var of envelope
		if err := json.Unmarshal(env.Data, &of); err != nil {
			return nil, fmt.Errorf("decode inverse: %w", err)
		}
		child, err := decode(of)
		if err != nil {
			return nil, fmt.Errorf("inverse: %w", err)
		}
		return &inverseChange{of: child}, nil
	}

	factory, ok := leafChanges[env.Type]
	if !ok {
		return nil, fmt.Errorf("decode %q: %w", env.Type, ErrUnknownChangeType)
	}
	c := factory()
	if err := json.Unmarshal(env.Data, c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return c, nil
}
