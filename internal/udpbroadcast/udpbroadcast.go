// Package udpbroadcast fans RTCM3 frames out to every broadcast-capable
// local network interface, one UDP datagram per frame, ignoring
// per-destination send errors so a dead interface never blocks the stream.
package udpbroadcast

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Port is the fixed destination port rover clients listen on.
const Port = 10777

// Broadcaster owns the UDP socket used to fan RTCM3 frames out. It is
// invoked synchronously by the I/O worker; nothing else touches the
// socket.
type Broadcaster struct {
	conn         *net.UDPConn
	destinations []*net.UDPAddr
}

// New opens a UDP socket with SO_BROADCAST enabled and discovers the
// host's current broadcast addresses. Go does not set SO_BROADCAST by
// default, so WriteToUDP to a broadcast address would otherwise fail
// with EACCES on Linux.
func New() (*Broadcaster, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return nil, err
	}
	b := &Broadcaster{conn: pc.(*net.UDPConn)}
	b.Refresh()
	return b, nil
}

// Refresh re-enumerates the host's broadcast addresses. Call it
// periodically if interfaces may come and go; the I/O worker is not
// required to do so on every tick.
func (b *Broadcaster) Refresh() {
	b.destinations = BroadcastAddresses()
}

// BroadcastAddresses inspects the host's network interfaces and returns
// the broadcast address of every IPv4 interface that has one.
func BroadcastAddresses() []*net.UDPAddr {
	var out []*net.UDPAddr

	ifaces, err := net.Interfaces()
	if err != nil {
		return out
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			broadcast := broadcastAddr(ip4, ipnet.Mask)
			out = append(out, &net.UDPAddr{IP: broadcast, Port: Port})
		}
	}
	return out
}

func broadcastAddr(ip net.IP, mask net.IPMask) net.IP {
	bcast := make(net.IP, len(ip))
	for i := range ip {
		bcast[i] = ip[i] | ^mask[i]
	}
	return bcast
}

// Send transmits frame to every known broadcast destination as a single
// datagram, ignoring individual send errors.
func (b *Broadcaster) Send(frame []byte) {
	for _, dst := range b.destinations {
		b.conn.WriteToUDP(frame, dst)
	}
}

// Close releases the UDP socket.
func (b *Broadcaster) Close() error {
	return b.conn.Close()
}
