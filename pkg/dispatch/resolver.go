package dispatch

import (
	"fmt"

	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/structfile"
)

// Class is the outcome of resolving a host address.
type Class int

const (
	LocalHost Class = iota
	RemoteHost
)

func (c Class) String() string {
	switch c {
	case LocalHost:
		return "local"
	case RemoteHost:
		return "remote"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// ServerHost is a peer that requests can be forwarded to.
type ServerHost struct {
	Name string
	URL  string
}

type Resolver interface {
	Resolve(addr structfile.HostAddr) (Class, *ServerHost, error)
}

// HostTable resolves host names against this server's own names and its
// configured peers.
type HostTable struct {
	zone  string
	local map[string]bool
	peers map[string]*ServerHost
}

// NewHostTable builds a table for the server named localName. peers maps a peer
// name to its base URL.
func NewHostTable(zone, localName string, aliases []string, peers map[string]string) *HostTable {
	h := &HostTable{
		zone:  zone,
		local: map[string]bool{"": true, localName: true},
		peers: make(map[string]*ServerHost),
	}

	for _, alias := range aliases {
		h.local[alias] = true
	}

	for name, url := range peers {
		if h.local[name] {
			continue
		}
		h.peers[name] = &ServerHost{Name: name, URL: url}
	}

	return h
}

func (h *HostTable) Resolve(addr structfile.HostAddr) (Class, *ServerHost, error) {
	if addr.ZoneName != "" && h.zone != "" && addr.ZoneName != h.zone {
		return LocalHost, nil, rerr.New(rerr.SysInvalidServerHost, "zone %s is not served here", addr.ZoneName)
	}

	if h.local[addr.HostName] {
		return LocalHost, nil, nil
	}

	if peer, ok := h.peers[addr.HostName]; ok {
		return RemoteHost, peer, nil
	}

	return LocalHost, nil, rerr.New(rerr.SysInvalidServerHost, "unknown host %s", addr.HostName)
}
