package rcaserver

import (
	"encoding/json"
	"io"
)

// WriteJSON writes data as a JSON response body.
func WriteJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(data)
}
