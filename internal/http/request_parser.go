// Package http provides HTTP server and handler implementations.
//
// This file turns query strings and JSON bodies into the loosely typed
// option map the report filters are parsed from.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// OptionsFromQuery converts query parameters to report options. A key given
// once maps to its string value; a repeated key maps to a list, and so does
// a single value written as a JSON array (`party=["A","B"]`).
func OptionsFromQuery(query url.Values) map[string]any {
	options := make(map[string]any, len(query))
	for key, values := range query {
		switch len(values) {
		case 0:
			continue
		case 1:
			options[key] = queryValue(values[0])
		default:
			list := make([]any, 0, len(values))
			for _, v := range values {
				list = append(list, v)
			}
			options[key] = list
		}
	}
	return options
}

func queryValue(v string) any {
	trimmed := strings.TrimSpace(v)
	if strings.HasPrefix(trimmed, "[") {
		var list []any
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return list
		}
	}
	return v
}

// DecodeOptions reads a JSON object body. An empty body is allowed when
// allowEmpty is set and yields no options.
func DecodeOptions(r *http.Request, w http.ResponseWriter, allowEmpty bool) (map[string]any, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		if allowEmpty {
			return map[string]any{}, nil
		}
		return nil, errEmptyBody
	}

	var options map[string]any
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, fmt.Errorf("body must be a JSON object: %w", err)
	}
	if options == nil {
		options = map[string]any{}
	}
	return options, nil
}

// ipResolver finds the caller address. Forwarding headers are only honored
// when the direct peer is a trusted proxy.
type ipResolver struct {
	trusted []netip.Prefix
}

// ParseTrustedProxies reads proxy addresses given as IPs or CIDR prefixes.
func ParseTrustedProxies(list []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (res ipResolver) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !res.isTrusted(peer) {
		return peer
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		// Walk back from the nearest hop; the first untrusted one is the client.
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !res.isTrusted(hop) {
				return hop
			}
		}
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}

func (res ipResolver) isTrusted(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range res.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// remoteHost drops the port from a RemoteAddr.
func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
