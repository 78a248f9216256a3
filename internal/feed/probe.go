package feed

import (
	"context"
	"net"
)

// probeHosts are the connectivity-check endpoints browsers use; both answer
// plain TCP on port 80 from anywhere.
var probeHosts = []string{
	"clients3.google.com:80",
	"detectportal.firefox.com:80",
}

// Online reports whether the network looks reachable. It is a hint for the
// presentation layer to warn before a refresh; the engine itself never
// consults it and simply lets fetches fail.
func Online(ctx context.Context) bool {
	var d net.Dialer
	for _, addr := range probeHosts {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}
