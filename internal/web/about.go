package web

import (
	"encoding/json"
	"net"
	"net/http"
	"runtime"
	"runtime/debug"
	"sort"
	"time"
)

type AboutResponse struct {
	Service    string   `json:"service"`
	NowUTC     string   `json:"now_utc"`
	GoVersion  string   `json:"go_version"`
	ModulePath string   `json:"module_path,omitempty"`
	Version    string   `json:"version,omitempty"`
	Commit     string   `json:"commit,omitempty"`
	Dirty      bool     `json:"dirty,omitempty"`
	BuildTime  string   `json:"build_time,omitempty"`
	LocalAddrs []string `json:"local_addrs,omitempty"`
}

func AboutHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		resp := AboutResponse{
			Service:    "gpsclock",
			NowUTC:     time.Now().UTC().Format(time.RFC3339Nano),
			GoVersion:  runtime.Version(),
			LocalAddrs: localInterfaceAddrs(),
		}

		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			resp.ModulePath = bi.Main.Path
			resp.Version = bi.Main.Version
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					resp.Commit = s.Value
				case "vcs.modified":
					resp.Dirty = s.Value == "true"
				case "vcs.time":
					resp.BuildTime = s.Value
				}
			}
		}

		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})
}

// localInterfaceAddrs lists the box's routable IPv4 addresses so the clock
// can be found on the bench network.
func localInterfaceAddrs() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	out := make([]string, 0, 8)
	for _, iface := range ifaces {
		if (iface.Flags & net.FlagUp) == 0 {
			continue
		}
		if (iface.Flags & net.FlagLoopback) != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var ip net.IP
			var ipnet *net.IPNet
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
				ipnet = v
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}
			if ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
				continue
			}
			if ipnet != nil {
				out = append(out, iface.Name+": "+ipnet.String())
			} else {
				out = append(out, iface.Name+": "+ip4.String())
			}
		}
	}

	sort.Strings(out)
	return out
}
