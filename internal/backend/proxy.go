package backend

import (
	"io"
	"net/http"
)

// forwardedRequestHeaders are copied from the browser request upstream.
var forwardedRequestHeaders = []string{"Content-Type", "Accept", "Accept-Language"}

// Proxy forwards browser requests to the backend and relays status and body
// unchanged.
type Proxy struct {
	client *Client
}

func NewProxy(client *Client) *Proxy {
	return &Proxy{client: client}
}

// Forward sends r upstream at upstreamPath with r's query. It writes to w only
// after the full upstream body has been read; a returned error means nothing
// was written.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request, upstreamPath string, scope Scope) error {
	target := p.client.URL(upstreamPath, nil)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return err
	}
	req.ContentLength = r.ContentLength
	for _, name := range forwardedRequestHeaders {
		if value := r.Header.Get(name); value != "" {
			req.Header.Set(name, value)
		}
	}
	scope.Apply(req.Header)

	resp, err := p.client.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	for _, name := range []string{"Content-Type", "Content-Disposition"} {
		if value := resp.Header.Get(name); value != "" {
			w.Header().Set(name, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(raw)
	return nil
}
