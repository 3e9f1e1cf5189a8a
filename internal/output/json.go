package output

import (
	"encoding/json"
	"io"
)

// WriteJSON writes d as indented JSON.
func WriteJSON(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}
