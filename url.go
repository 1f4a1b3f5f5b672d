package aiofetch

import (
	"strconv"
	"strings"
)

// parseURL splits http(s)://host(:port)/path into its request fields.
// Only the two http schemes are supported; the port defaults by scheme
// and a missing path becomes "/".
func parseURL(rawurl string) (host string, port int, path string, useTLS bool, err error) {
	u := rawurl
	switch {
	case strings.HasPrefix(u, "https://"):
		useTLS = true
		u = u[len("https://"):]
	case strings.HasPrefix(u, "http://"):
		u = u[len("http://"):]
	default:
		return "", 0, "", false, ErrInvalidURL
	}

	// separate host(+port) from path
	var hostPort string
	if slash := strings.IndexByte(u, '/'); slash < 0 {
		hostPort = u
		path = "/"
	} else {
		hostPort = u[:slash]
		path = u[slash:]
	}

	if colon := strings.IndexByte(hostPort, ':'); colon > 0 {
		host = hostPort[:colon]
		port, err = strconv.Atoi(hostPort[colon+1:])
		if err != nil || port <= 0 || port > 65535 {
			return "", 0, "", false, ErrInvalidURL
		}
	} else {
		host = hostPort
		if useTLS {
			port = 443
		} else {
			port = 80
		}
	}

	if host == "" {
		return "", 0, "", false, ErrInvalidURL
	}
	return host, port, path, useTLS, nil
}
