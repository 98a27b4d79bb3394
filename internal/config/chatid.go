package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChatID is a Telegram chat reference. Config files may give it as a
// number (-1001234567890) or a string ("@channel").
type ChatID string

func (c *ChatID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ChatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("chat_id: want number or string: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("chat_id: %q is not an integer", n.String())
	}
	*c = ChatID(n.String())
	return nil
}

func (c ChatID) String() string { return string(c) }
