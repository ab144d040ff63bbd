package handlers

import (
	"net"
	"net/http"
	"strings"
)

// Connectivity-check hosts of the major platforms. A registered client's
// probe must get the exact answer its OS expects or the captive-portal
// popup stays open.
var (
	appleHosts = hostSet(
		"captive.apple.com",
		"appleiphonecell.com",
		"*.apple.com.edgekey.net",
		"gsp1.apple.com",
		"apple.com",
		"www.apple.com",
		"iphone-ld.apple.com",
		"netcts.cdn-apple.com",
	)
	microsoftHosts = hostSet(
		"ipv6.msftncsi.com",
		"detectportal.firefox.com",
		"ipv6.msftncsi.com.edgesuite.net",
		"www.msftncsi.com",
		"www.msftncsi.com.edgesuite.net",
		"www.msftconnecttest.com",
		"www.msn.com",
		"teredo.ipv6.microsoft.com",
		"teredo.ipv6.microsoft.com.nsatc.net",
		"ctldl.windowsupdate.com",
	)
	firefoxHosts = hostSet("detectportal.firefox.com")
)

const (
	ncsiHost     = "www.msftncsi.com"
	nmcheckHost  = "nmcheck.gnome.org"
	ubuntuHost   = "connectivity-check.ubuntu.com"
	appleSuccess = "<HTML><HEAD><TITLE>Success</TITLE></HEAD><BODY>Success</BODY></HTML>"
)

func hostSet(hosts ...string) map[string]bool {
	set := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		set[h] = true
	}
	return set
}

func requestHost(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

// platformKind names the success answer chosen for a request.
func platformKind(r *http.Request) string {
	host := requestHost(r)

	switch {
	case appleHosts[host]:
		return "apple"
	case firefoxHosts[host]:
		return "firefox"
	case microsoftHosts[host]:
		if host == ncsiHost && r.URL.Path == "/ncsi.txt" {
			return "microsoft-ncsi"
		}
		return "microsoft"
	case host == nmcheckHost && r.URL.Path == "/check_network_status.txt":
		return "nmcheck"
	case host == ubuntuHost:
		return "ubuntu"
	case r.URL.Path == "/gen_204" || r.URL.Path == "/generate_204":
		return "google"
	}
	return "default"
}

// writePlatformSuccess answers a connectivity probe the way the probing
// platform recognises as "online".
func writePlatformSuccess(w http.ResponseWriter, r *http.Request) {
	switch platformKind(r) {
	case "apple":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(appleSuccess))
	case "firefox":
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<meta http-equiv="refresh" content="0;url=https://support.mozilla.org/kb/captive-portal"/>`))
	case "microsoft-ncsi":
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Microsoft NCSI"))
	case "microsoft":
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("Microsoft Connect Test"))
	case "nmcheck":
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		w.Write([]byte("NetworkManager is online\n"))
	case "ubuntu":
		w.Header().Set("X-NetworkManager-Status", "online")
		w.WriteHeader(http.StatusNoContent)
	case "google":
		w.Header().Set("Server", "gws")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
