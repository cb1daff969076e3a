package connectivity

import (
	"net"

	"github.com/julianstephens/pulse/internal/logger"
)

// Presence is the platform's own network-presence flag. A false reading is
// trusted without probing.
type Presence interface {
	Online() bool
}

// PresenceFunc adapts a function to Presence.
type PresenceFunc func() bool

func (f PresenceFunc) Online() bool {
	return f()
}

// AlwaysPresent never short-circuits to offline.
var AlwaysPresent Presence = PresenceFunc(func() bool { return true })

// interfacesFunc is a seam for tests.
var interfacesFunc = net.Interfaces

// InterfacePresence reports network presence when any non-loopback
// interface is up and has an address.
type InterfacePresence struct{}

func (InterfacePresence) Online() bool {
	ifaces, err := interfacesFunc()
	if err != nil {
		// Unknown presence must not suppress the probe.
		logger.Debug("Failed to list network interfaces", "error", err)
		return true
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
