package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FreeText is a value typed by the operator. It accepts either a JSON string
// or a JSON number so that forms can post numbers as they were entered.
type FreeText string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FreeText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode free text: %w", err)
		}
		*f = FreeText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("free text must be a string or a number: %w", err)
	}
	*f = FreeText(n.String())
	return nil
}

// String returns the raw text.
func (f FreeText) String() string {
	return string(f)
}
