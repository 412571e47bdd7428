package tapedeck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/audiolibrelab/tapedeck/tape"
)

// Forward sends a request to the live endpoint. It is the only blocking step
// in the pipeline; a failed or cancelled forward leaves the tape unchanged.
type Forward func(ctx context.Context, req tape.Request) (tape.Response, error)

// Interceptor routes every outgoing request of an active session through the
// bound tape's mode policy: play back a stored response, forward live and
// record, or reject.
type Interceptor struct {
	mu   sync.Mutex
	tape *tape.Tape
}

// NewInterceptor creates an interceptor for the given tape.
func NewInterceptor(t *tape.Tape) *Interceptor {
	return &Interceptor{tape: t}
}

// Intercept applies the active mode policy to one outgoing request. The
// whole match-then-mutate sequence, including the live forward, runs inside
// the interceptor's critical section: concurrent requests on the same tape
// are handled strictly one at a time.
func (i *Interceptor) Intercept(ctx context.Context, req tape.Request, forward Forward) (tape.Response, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	policy := i.tape.Mode().Policy()

	match, index, err := i.tape.FindMatch(req)
	switch {
	case err == nil && policy.Playback:
		slog.Debug("tape playback", "tape", i.tape.Name(), "method", req.Method, "url", req.URL, "index", index)
		return match.Response, nil
	case err != nil && !policy.Write:
		if errors.Is(err, tape.ErrNoMatch) {
			err = fmt.Errorf("%s %s: %w", req.Method, req.URL, tape.ErrNotWritable)
		} else {
			err = fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
		}
		slog.Debug("tape rejected request", "tape", i.tape.Name(), "method", req.Method, "url", req.URL, "error", err)
		return tape.Response{}, err
	}

	res, ferr := forward(ctx, req)
	if ferr != nil {
		// Transport failures propagate unchanged and never produce a record.
		return tape.Response{}, ferr
	}

	if err == nil && policy.Strategy == tape.WriteOverwrite {
		if werr := i.tape.Overwrite(index, req, res); werr != nil {
			return tape.Response{}, werr
		}
		slog.Debug("tape overwrite", "tape", i.tape.Name(), "method", req.Method, "url", req.URL, "index", index)
		return res, nil
	}

	if werr := i.tape.Record(req, res); werr != nil {
		return tape.Response{}, werr
	}
	slog.Debug("tape record", "tape", i.tape.Name(), "method", req.Method, "url", req.URL, "size", i.tape.Size())
	return res, nil
}

// Transport adapts an Interceptor to http.RoundTripper so an ordinary
// *http.Client can be pointed at a tape.
type Transport struct {
	Interceptor *Interceptor
	// Base handles live forwards when the policy allows them. A nil Base
	// falls back to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip converts the request to the tape's transport-agnostic shape,
// runs it through the interceptor, and converts the outcome back.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	treq, err := fromHTTPRequest(req)
	if err != nil {
		return nil, err
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	res, err := t.Interceptor.Intercept(req.Context(), treq, func(ctx context.Context, _ tape.Request) (tape.Response, error) {
		return forwardHTTP(base, req)
	})
	if err != nil {
		return nil, err
	}
	return toHTTPResponse(req, res), nil
}

// fromHTTPRequest flattens an *http.Request into the tape's request shape,
// leaving the original body readable for a later live forward.
func fromHTTPRequest(req *http.Request) (tape.Request, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return tape.Request{}, fmt.Errorf("read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	return tape.Request{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: flattenHeader(req.Header),
		Body:    body,
	}, nil
}

// forwardHTTP performs the live round trip and captures the response.
func forwardHTTP(base http.RoundTripper, req *http.Request) (tape.Response, error) {
	res, err := base.RoundTrip(req)
	if err != nil {
		return tape.Response{}, err
	}
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return tape.Response{}, fmt.Errorf("read live response body: %w", err)
	}
	return tape.Response{
		Status:  res.StatusCode,
		Headers: flattenHeader(res.Header),
		Body:    body,
	}, nil
}

// toHTTPResponse rebuilds an *http.Response from a recorded or live-captured
// response.
func toHTTPResponse(req *http.Request, res tape.Response) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", res.Status, http.StatusText(res.Status)),
		StatusCode:    res.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        expandHeader(res.Headers),
		Body:          io.NopCloser(bytes.NewReader(res.Body)),
		ContentLength: int64(len(res.Body)),
		Request:       req,
	}
}

// flattenHeader collapses multi-valued headers into the tape's single-string
// form, joining repeated values the way proxies do.
func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func expandHeader(headers map[string]string) http.Header {
	h := make(http.Header, len(headers))
	for name, value := range headers {
		h.Set(name, value)
	}
	return h
}
