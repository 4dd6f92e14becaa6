package api

import (
	"fmt"
	"net/url"
)

// Params holds query string parameters for a request. Nil values are omitted
// from the encoded query so optional filters can be passed unconditionally.
type Params map[string]any

// encode serializes the parameters to a URL query string. Keys with nil
// values are skipped; everything else is rendered with its default string
// form. Ordering is canonical (url.Values sorts keys on encode).
func (p Params) encode() string {
	if len(p) == 0 {
		return ""
	}

	values := url.Values{}
	for key, value := range p {
		if value == nil {
			continue
		}
		values.Set(key, fmt.Sprint(value))
	}
	return values.Encode()
}
