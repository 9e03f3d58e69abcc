// Package device owns the authenticated HTTP conversation with one switch's
// web-management console. The console is not an API: it is a login form, a
// session cookie with a fixed lifetime, and a handful of CGI pages whose
// bodies are scraped by the parse package.
package device

import "time"

// Fixed CGI paths on the target device.
const (
	LoginPath     = "/login.cgi"
	SystemPath    = "/SysInfo.cgi"
	PortsPath     = "/PortSettings.cgi"
	PortSetPath   = "/PortSet.cgi"
	VlanPath      = "/VlanCfg.cgi"
	VlanSetPath   = "/VlanSet.cgi"
	CableDiagPath = "/CableDiagGet.cgi"
	RebootPath    = "/Reboot.cgi"
)

// Response validation markers. A body that contains the login path is the
// login page itself, which the device serves for any request made with an
// expired or missing session. The success marker acknowledges a write.
const (
	expiredMarker      = LoginPath
	writeSuccessMarker = "Operation successful"
)

// Session cookie lifetime as enforced by the device firmware.
const sessionLifetime = time.Hour

// Operation timeouts. The connection test is deliberately short; general
// operations allow for the device's slow embedded web server.
const (
	testTimeout    = 5 * time.Second
	loginTimeout   = 10 * time.Second
	requestTimeout = 60 * time.Second
)
