// Package protocol defines the JSON request/response shapes exchanged
// between kvs-client and kvs-server: one request, one response, per
// connection. Encoding uses goccy/go-json, a drop-in faster replacement
// for encoding/json with the same struct-tag semantics, rather than the
// standard library.
package protocol

import (
	"io"

	json "github.com/goccy/go-json"
)

// GetRequest asks the server for the value stored under Key.
type GetRequest struct {
	Key string `json:"key"`
}

// SetRequest asks the server to store Value under Key.
type SetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RemoveRequest asks the server to delete Key.
type RemoveRequest struct {
	Key string `json:"key"`
}

// Request is exactly one of Get, Set, or Remove — only one field is ever
// populated, mirroring the tagged-enum shape of the wire format:
// {"Get":{"key":"..."}}, {"Set":{"key":"...","value":"..."}}, or
// {"Remove":{"key":"..."}}.
type Request struct {
	Get    *GetRequest    `json:"Get,omitempty"`
	Set    *SetRequest    `json:"Set,omitempty"`
	Remove *RemoveRequest `json:"Remove,omitempty"`
}

// NewGetRequest builds a Request carrying a Get.
func NewGetRequest(key string) Request {
	return Request{Get: &GetRequest{Key: key}}
}

// NewSetRequest builds a Request carrying a Set.
func NewSetRequest(key, value string) Request {
	return Request{Set: &SetRequest{Key: key, Value: value}}
}

// NewRemoveRequest builds a Request carrying a Remove.
func NewRemoveRequest(key string) Request {
	return Request{Remove: &RemoveRequest{Key: key}}
}

// Response is the server's reply: exactly one of Success (the Get value,
// null for a Set/Remove or a Get miss) or Failed (a human-readable
// message) — never both, matching the tagged-enum shape of the wire
// format: {"Success":null}, {"Success":"<value>"}, or
// {"Failed":"<message>"}. found distinguishes a Get hit carrying the
// empty string from a Get miss or a Set/Remove acknowledgment: both of
// the latter marshal to {"Success":null}, but only found=true round-trips
// a real value, so a key explicitly set to "" still reads back as "" and
// not as a miss.
type Response struct {
	ok      bool
	found   bool
	value   string
	failure string
}

// OK builds a successful Response carrying no value (Set, Remove, or a
// Get that found nothing).
func OK() Response {
	return Response{ok: true}
}

// OKWithValue builds a successful Response carrying a Get's retrieved value.
func OKWithValue(value string) Response {
	return Response{ok: true, found: true, value: value}
}

// Err builds a failed Response carrying a message.
func Err(message string) Response {
	return Response{ok: false, failure: message}
}

// IsOK reports whether the response represents success.
func (r Response) IsOK() bool {
	return r.ok
}

// Found reports whether a successful Get response carried a value, as
// opposed to a miss or a Set/Remove acknowledgment.
func (r Response) Found() bool {
	return r.found
}

// Value returns the Get value of a successful response. It is only
// meaningful when Found reports true.
func (r Response) Value() string {
	return r.value
}

// Message returns the failure message of an unsuccessful response.
func (r Response) Message() string {
	return r.failure
}

type successWire struct {
	Success *string `json:"Success"`
}

type failureWire struct {
	Failed string `json:"Failed"`
}

// MarshalJSON emits exactly one of "Success" or "Failed", never both.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.ok {
		var v *string
		if r.found {
			v = &r.value
		}
		return json.Marshal(successWire{Success: v})
	}
	return json.Marshal(failureWire{Failed: r.failure})
}

// UnmarshalJSON accepts whichever of "Success"/"Failed" is present.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success *string `json:"Success"`
		Failed  *string `json:"Failed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Failed != nil {
		*r = Response{ok: false, failure: *raw.Failed}
		return nil
	}

	*r = Response{ok: true}
	if raw.Success != nil {
		r.found = true
		r.value = *raw.Success
	}
	return nil
}

// WriteRequest encodes req to w.
func WriteRequest(w io.Writer, req Request) error {
	return json.NewEncoder(w).Encode(req)
}

// ReadRequest decodes a single Request from r.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	err := json.NewDecoder(r).Decode(&req)
	return req, err
}

// WriteResponse encodes resp to w.
func WriteResponse(w io.Writer, resp Response) error {
	return json.NewEncoder(w).Encode(resp)
}

// ReadResponse decodes a single Response from r.
func ReadResponse(r io.Reader) (Response, error) {
	var resp Response
	err := json.NewDecoder(r).Decode(&resp)
	return resp, err
}
