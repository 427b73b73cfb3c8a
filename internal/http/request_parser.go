package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// maxBodyBytes bounds create/edit submissions.
const maxBodyBytes = 64 << 10

var (
	errUnsupportedBody = errors.New("unsupported request body")
	errMalformedBody   = errors.New("malformed request body")
)

// RequestBodyParser reads a create/edit submission as url.Values. HTML forms
// post application/x-www-form-urlencoded; API clients may post a flat JSON
// object whose values are strings, numbers or null.
type RequestBodyParser struct {
	body        []byte
	contentType string
	values      url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r once.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	}
	return p
}

// Values parses the body. Repeated calls return the same result.
func (p *RequestBodyParser) Values() (url.Values, error) {
	if p.parsed {
		return p.values, p.err
	}
	p.parsed = true
	if p.err != nil {
		return nil, p.err
	}

	mediaType, _, _ := mime.ParseMediaType(p.contentType)
	switch {
	case len(p.body) == 0:
		p.values = url.Values{}
	case mediaType == "application/json":
		p.values, p.err = jsonValues(p.body)
	case mediaType == "" || mediaType == "application/x-www-form-urlencoded":
		if p.values, p.err = url.ParseQuery(string(p.body)); p.err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
		}
	default:
		p.err = fmt.Errorf("%w: %s", errUnsupportedBody, mediaType)
	}
	return p.values, p.err
}

func jsonValues(body []byte) (url.Values, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	values := make(url.Values, len(raw))
	for key, v := range raw {
		s, ok := stringValue(v)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string or a number", errMalformedBody, key)
		}
		values.Set(key, s)
	}
	return values, nil
}

func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
