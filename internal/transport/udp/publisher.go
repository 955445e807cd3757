// SPDX-License-Identifier: MIT
/*
Package udp drives a networked LED controller with WLED's realtime DRGB
protocol. The engine hands frames to a led.Slot; the Publisher samples it on
its own ticker and emits one datagram per tick.

DRGB packet:

	+--------+---------+----------------------------+
	| byte 0 | byte 1  | bytes 2..                  |
	+--------+---------+----------------------------+
	| 2      | timeout | R G B for LED 0, 1, ... N-1|
	+--------+---------+----------------------------+

timeout is the number of seconds the controller stays in realtime mode after
the last packet; 255 disables the timeout.
*/
package udp

import (
	"fmt"
	"sync"
	"time"

	"ledvu/internal/led"
	applog "ledvu/internal/log"
)

const (
	protocolDRGB = 2
	headerSize   = 2
	// MaxLEDs is the most LEDs a DRGB packet can address.
	MaxLEDs = 490
	// DefaultTimeout returns the controller to its own effects two seconds
	// after the meter stops.
	DefaultTimeout = 2
)

// Sender transmits one datagram.
type Sender interface {
	Send(data []byte) error
}

// Publisher periodically turns the latest frame into a DRGB packet.
type Publisher struct {
	sender     Sender
	slot       *led.Slot
	interval   time.Duration
	length     int
	brightness uint8
	timeout    uint8

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop

	sent   uint64
	frame  led.Frame
	strip  []led.Color
	packet []byte
}

// NewPublisher builds a publisher for a strip of length LEDs fed from slot.
// An interval <= 0 defaults to 16ms.
func NewPublisher(interval time.Duration, sender Sender, slot *led.Slot, length int, brightness uint8) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("Publisher: sender cannot be nil")
	}
	if slot == nil {
		return nil, fmt.Errorf("Publisher: frame slot cannot be nil")
	}
	if length < 1 || length > MaxLEDs {
		return nil, fmt.Errorf("Publisher: strip length must be within 1-%d, got %d", MaxLEDs, length)
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		sender:     sender,
		slot:       slot,
		interval:   interval,
		length:     length,
		brightness: brightness,
		timeout:    DefaultTimeout,
		frame:      make(led.Frame, 0, length),
		strip:      make([]led.Color, length),
		packet:     make([]byte, headerSize+3*length),
	}, nil
}

// Start launches the publishing goroutine. Calling Start on a running
// publisher is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("Publisher: Started (%d LEDs every %s)", p.length, p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("Publisher: Stopped after %d packets", p.sent)
	return nil
}

// Close stops the publisher.
func (p *Publisher) Close() error { return p.Stop() }

func (p *Publisher) publish() {
	p.frame, _ = p.slot.Load(p.frame)
	p.strip = p.frame.Render(p.strip, p.length)
	packet := p.BuildPacket(p.strip)
	if err := p.sender.Send(packet); err != nil {
		applog.Debugf("Publisher: Send error: %v", err)
		return
	}
	p.sent++
}

// BuildPacket encodes strip as a DRGB packet in the publisher's reusable
// buffer. The result is only valid until the next call.
func (p *Publisher) BuildPacket(strip []led.Color) []byte {
	p.packet[0] = protocolDRGB
	p.packet[1] = p.timeout
	for i := range p.length {
		c := led.Off
		if i < len(strip) {
			c = strip[i].Scale(p.brightness)
		}
		r, g, b := c.RGB()
		off := headerSize + 3*i
		p.packet[off] = r
		p.packet[off+1] = g
		p.packet[off+2] = b
	}
	return p.packet
}

var _ interface{ Close() error } = (*Publisher)(nil)
