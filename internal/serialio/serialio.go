// Package serialio owns the USB serial link to the u-blox receiver:
// scanning for the device by VID:PID, opening it at 115200-8N1, and giving
// the I/O worker non-blocking reads and best-effort bulk writes.
package serialio

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/muexxl/rtkbase/internal/rtkerr"
)

// DefaultVID and DefaultPID identify the u-blox USB serial interface this
// controller targets.
const (
	DefaultVID  = "1546"
	DefaultPID  = "01A8"
	BaudRate    = 115200
	ScanPeriod  = 100 * time.Millisecond
	readTimeout = 20 * time.Millisecond
)

// Link is the serial link to the receiver. It is owned exclusively by the
// I/O worker; no other component reads or writes it.
type Link struct {
	vid, pid string
	port     serial.Port
}

// New returns a Link that scans for the given VID:PID (hex, no "0x"
// prefix, matching go.bug.st/serial/enumerator's PortDetails fields).
func New(vid, pid string) *Link {
	if vid == "" {
		vid = DefaultVID
	}
	if pid == "" {
		pid = DefaultPID
	}
	return &Link{vid: vid, pid: pid}
}

// IsOpen reports whether the link currently holds an open port.
func (l *Link) IsOpen() bool { return l.port != nil }

// Open scans for the matching USB device, polling every ScanPeriod until
// one appears or ctx is cancelled.
func (l *Link) Open(ctx context.Context) error {
	for {
		portName, err := l.findDevice()
		if err == nil {
			mode := &serial.Mode{BaudRate: BaudRate, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
			port, openErr := serial.Open(portName, mode)
			if openErr == nil {
				// A short read timeout approximates the "return whatever is
				// available, never block" contract the I/O worker needs.
				if timeoutErr := port.SetReadTimeout(readTimeout); timeoutErr != nil {
					port.Close()
					return rtkerr.Wrap(rtkerr.TransientIO, fmt.Errorf("set read timeout: %w", timeoutErr))
				}
				l.port = port
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ScanPeriod):
		}
	}
}

func (l *Link) findDevice() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", rtkerr.Wrap(rtkerr.TransientIO, err)
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if equalFoldHex(p.VID, l.vid) && equalFoldHex(p.PID, l.pid) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("serialio: no device found for VID:PID %s:%s", l.vid, l.pid)
}

// equalFoldHex compares two hex strings (with or without leading zeros or
// "0x" prefixes) for numeric equality.
func equalFoldHex(a, b string) bool {
	av, aerr := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(a), "0x"), 16, 32)
	bv, berr := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(b), "0x"), 16, 32)
	return aerr == nil && berr == nil && av == bv
}

// Close closes the underlying port, if open.
func (l *Link) Close() error {
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}

// Read returns whatever bytes are currently available without blocking for
// more. On any I/O error the link is closed so the I/O worker rescans.
func (l *Link) Read(buf []byte) (int, error) {
	if l.port == nil {
		return 0, fmt.Errorf("serialio: link not open")
	}
	n, err := l.port.Read(buf)
	if err != nil {
		l.Close()
		return n, rtkerr.Wrap(rtkerr.TransientIO, err)
	}
	return n, nil
}

// Write performs a best-effort bulk write. On error the link is closed so
// the I/O worker rescans.
func (l *Link) Write(data []byte) error {
	if l.port == nil {
		return fmt.Errorf("serialio: link not open")
	}
	_, err := l.port.Write(data)
	if err != nil {
		l.Close()
		return rtkerr.Wrap(rtkerr.TransientIO, err)
	}
	return nil
}
