package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier assigned by a collaborator. Services send ids either as
// JSON strings or as JSON numbers; both decode to the same text.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*id = ID(x)
	case json.Number:
		*id = ID(x.String())
	default:
		return fmt.Errorf("id: unsupported JSON value %s", b)
	}
	return nil
}
