package display

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// encoder sorts object keys so the same value always renders the same way.
var encoder = sonic.Config{
	SortMapKeys:    true,
	ValidateString: true,
	UseNumber:      true,
}.Froze()

// Raw is a JSON document that is rendered in compact form.
type Raw []byte

// Format renders data as display text. Strings, byte slices and errors are
// shown as-is; anything else is serialized to compact JSON.
func Format(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case Raw:
		return compact(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}

	out, err := encoder.Marshal(data)
	if err != nil {
		return fmt.Sprint(data)
	}
	return string(out)
}

// compact re-encodes a JSON document so nested objects render with sorted keys
// and no insignificant whitespace. Invalid JSON is shown verbatim.
func compact(doc Raw) string {
	var v any
	if err := encoder.Unmarshal(doc, &v); err != nil {
		return string(doc)
	}
	out, err := encoder.Marshal(v)
	if err != nil {
		return string(doc)
	}
	return string(out)
}
