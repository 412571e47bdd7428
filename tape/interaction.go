package tape

import (
	"time"
)

// Request is the transport-agnostic shape of an outgoing HTTP request.
// Method and URL (plus any headers the active MatchRule declares) form the
// match key; the body is carried along but never matched on.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the transport-agnostic shape of a captured HTTP response.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Interaction is one recorded request/response exchange. It is immutable
// after creation: replacing one means constructing a new Interaction and
// substituting it in the tape's sequence.
type Interaction struct {
	Recorded time.Time
	Request  Request
	Response Response
}

// NewInteraction captures a request/response pair at the current time.
// Timestamps are normalized to UTC millisecond precision so that persisted
// documents re-serialize byte-identically.
func NewInteraction(req Request, res Response) Interaction {
	return Interaction{
		Recorded: time.Now().UTC().Truncate(time.Millisecond),
		Request:  cloneRequest(req),
		Response: cloneResponse(res),
	}
}

func cloneRequest(req Request) Request {
	return Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: cloneHeaders(req.Headers),
		Body:    cloneBytes(req.Body),
	}
}

func cloneResponse(res Response) Response {
	return Response{
		Status:  res.Status,
		Headers: cloneHeaders(res.Headers),
		Body:    cloneBytes(res.Body),
	}
}

func cloneHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
