// Package discovery parses ONVIF WS-Discovery probe responses into the
// camera inventory used to seed the reachability check.
package discovery

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ONVIF scope URI prefixes carrying device metadata.
const (
	scopeHardware = "onvif://www.onvif.org/hardware/"
	scopeName     = "onvif://www.onvif.org/name/"
	scopeLocation = "onvif://www.onvif.org/location/"
)

// Camera is one discovered ONVIF device.
type Camera struct {
	UUID       string `json:"uuid"`
	Model      string `json:"model"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	ServiceURL string `json:"service_url"`
	IP         string `json:"ip"`
}

type envelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		ProbeMatches struct {
			Matches []probeMatch `xml:"ProbeMatch"`
		} `xml:"ProbeMatches"`
	} `xml:"Body"`
}

type probeMatch struct {
	EndpointReference struct {
		Address string `xml:"Address"`
	} `xml:"EndpointReference"`
	Scopes string `xml:"Scopes"`
	XAddrs string `xml:"XAddrs"`
}

// Parse decodes a WS-Discovery response. ProbeMatch entries without an
// endpoint address are skipped; an empty match list is a valid answer
// (no cameras on the segment), not an error.
func Parse(r io.Reader) ([]Camera, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("discovery: read response: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("discovery: empty input")
	}
	var env envelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("discovery: malformed XML: %w", err)
	}

	var cams []Camera
	for _, m := range env.Body.ProbeMatches.Matches {
		cam, ok := parseMatch(m)
		if !ok {
			continue
		}
		cams = append(cams, cam)
	}
	return cams, nil
}

func parseMatch(m probeMatch) (Camera, bool) {
	addr := strings.TrimSpace(m.EndpointReference.Address)
	if addr == "" {
		return Camera{}, false
	}
	cam := Camera{UUID: strings.TrimPrefix(addr, "urn:uuid:")}

	// XAddrs may hold several space-separated URLs; the first one is the
	// device service endpoint.
	if fields := strings.Fields(m.XAddrs); len(fields) > 0 {
		cam.ServiceURL = fields[0]
		if u, err := url.Parse(cam.ServiceURL); err == nil {
			cam.IP = u.Hostname()
		}
	}

	scopes := strings.Fields(m.Scopes)
	cam.Model = scopeValue(scopes, scopeHardware)
	cam.Location = scopeValue(scopes, scopeLocation)
	if name := scopeValue(scopes, scopeName); name != "" {
		// Names arrive URL-encoded (AXIS%20P3265-LVE).
		if decoded, err := url.PathUnescape(name); err == nil {
			cam.Name = decoded
		} else {
			cam.Name = name
		}
	}
	return cam, true
}

func scopeValue(scopes []string, prefix string) string {
	for _, s := range scopes {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
	}
	return ""
}

// Addresses returns host:port dial targets for the reachability probe,
// defaulting to the ONVIF HTTP port when the service URL has none.
func Addresses(cams []Camera) []string {
	var out []string
	for _, c := range cams {
		if c.ServiceURL == "" {
			continue
		}
		u, err := url.Parse(c.ServiceURL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		port := u.Port()
		if port == "" {
			port = "80"
		}
		out = append(out, u.Hostname()+":"+port)
	}
	return out
}
