package cloudvar_client

import "net/http"

// VariablePrefix is the reserved marker the service requires on cloud
// variable names. Exported so callers can build fully qualified names
// when autoprefixing is disabled.
const VariablePrefix = "☁ "

// Endpoint describes one cloud-data backend: where to connect, how the
// credential travels, and how large a value the host accepts.
type Endpoint struct {
	// URL is the WebSocket address of the host.
	URL string
	// Origin is sent on the opening handshake.
	Origin string
	// SessionCookie names the cookie carrying the session credential.
	// Empty means the host takes no credential and trusts the origin.
	SessionCookie string
	// MaxValueLen is the longest value the host stores.
	MaxValueLen int
}

// ScratchEndpoint is the default host. It authenticates with the
// session cookie and caps values at 256 characters.
func ScratchEndpoint() Endpoint {
	return Endpoint{
		URL:           "wss://clouddata.scratch.mit.edu",
		Origin:        "https://scratch.mit.edu",
		SessionCookie: "scratchsessionsid",
		MaxValueLen:   256,
	}
}

// TurboWarpEndpoint is the alternate host. It takes no credential and
// caps values at 100000 characters.
func TurboWarpEndpoint() Endpoint {
	return Endpoint{
		URL:         "wss://clouddata.turbowarp.org",
		Origin:      "https://turbowarp.org",
		MaxValueLen: 100000,
	}
}

// Header builds the opening-handshake headers for this endpoint: the
// origin, plus the session cookie when the endpoint uses one and the
// credential carries a token.
func (e Endpoint) Header(cred Credential) http.Header {
	h := http.Header{}
	if e.Origin != "" {
		h.Set("Origin", e.Origin)
	}
	if e.SessionCookie != "" && cred.SessionID != "" {
		h.Set("Cookie", e.SessionCookie+"="+cred.SessionID+";")
	}
	return h
}

func (e Endpoint) withDefaults() Endpoint {
	if e.URL == "" {
		return ScratchEndpoint()
	}
	if e.MaxValueLen == 0 {
		e.MaxValueLen = ScratchEndpoint().MaxValueLen
	}
	return e
}
