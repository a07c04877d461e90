package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// DefaultService is the mDNS service type relays advertise.
const DefaultService = "_whiteboard._tcp"

// Advertise announces the relay on the local network until the returned stop
// function is called. An empty instance uses the host name.
func Advertise(instance, service string, port int) (stop func() error, err error) {
	if instance == "" {
		if instance, err = os.Hostname(); err != nil {
			return nil, fmt.Errorf("hostname: %w", err)
		}
	}
	if service == "" {
		service = DefaultService
	}
	zone, err := mdns.NewMDNSService(instance, service, "", "", port, nil, []string{"path=/ws"})
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}
	srv, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	return srv.Shutdown, nil
}

// Relay is a relay found on the local network.
type Relay struct {
	Instance string
	Addr     string
	Port     int
}

// URL returns the relay's websocket endpoint.
func (r Relay) URL() string { return fmt.Sprintf("ws://%s:%d/ws", r.Addr, r.Port) }

// Discover browses the local network for relays for up to timeout.
func Discover(ctx context.Context, service string, timeout time.Duration) ([]Relay, error) {
	if service == "" {
		service = DefaultService
	}
	entries := make(chan *mdns.ServiceEntry, 16)
	var relays []Relay
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			relays = append(relays, Relay{Instance: e.Name, Addr: e.AddrV4.String(), Port: e.Port})
		}
	}()

	params := mdns.DefaultParams(service)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	if deadline, ok := ctx.Deadline(); ok {
		params.Timeout = min(params.Timeout, time.Until(deadline))
	}
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return nil, fmt.Errorf("mDNS query: %w", err)
	}
	return relays, nil
}
