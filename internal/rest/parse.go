package rest

import (
	"encoding/json"
	"io"
)

// decodeJSON decodes a JSON body into out with number preservation.
//
// Device identifiers and event identifiers from the Ring API exceed
// float64's integer precision, so all numbers are decoded as json.Number
// rather than float64. A nil out drains and discards the body.
func decodeJSON(r io.Reader, out any) error {
	if out == nil {
		_, err := io.Copy(io.Discard, r)
		return err
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			// Empty body on a success response is fine
			return nil
		}
		return err
	}
	return nil
}
