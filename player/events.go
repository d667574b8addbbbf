package player

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jellysan-cli/jellysan/log"
)

// EventCallback receives mpv property change notifications.
type EventCallback func(property string, data interface{})

// EventListener streams mpv property changes over a persistent IPC
// connection using observe_property.
type EventListener struct {
	socketPath string
	conn       net.Conn
	callback   EventCallback
	stopCh     chan struct{}
	mu         sync.Mutex
	listening  bool
}

// NewEventListener creates an event listener for the given socket.
func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
		stopCh:     make(chan struct{}),
	}
}

// Start registers the property observers and begins the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	properties := []struct {
		id   int
		name string
	}{
		{1, "time-pos"},    // position updates
		{2, "pause"},       // external pause toggles via the mpv UI
		{3, "seeking"},     // stall detection around seeks
		{4, "eof-reached"}, // item completion
		{5, "duration"},    // true duration once the demuxer knows it
	}

	for _, prop := range properties {
		_, err := doSendCommand(el.socketPath, []interface{}{"observe_property", prop.id, prop.name})
		if err != nil {
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}
	el.conn = conn
	el.listening = true

	go el.readLoop()

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop terminates the event listener.
func (el *EventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	close(el.stopCh)
	if el.conn != nil {
		el.conn.Close()
	}
	el.listening = false
}

// readLoop reads newline-delimited JSON events from the persistent
// connection until stopped.
func (el *EventListener) readLoop() {
	defer func() {
		el.mu.Lock()
		el.listening = false
		el.mu.Unlock()
	}()

	buf := make([]byte, 4096)
	var remainder []byte

	for {
		select {
		case <-el.stopCh:
			return
		default:
		}

		if err := el.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := el.conn.Read(buf)
		if err != nil {
			if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
				continue
			}
			log.Warnf("event listener read error: %v", err)
			return
		}

		data := append(remainder, buf[:n]...)
		remainder = nil

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// An incomplete trailing line carries over to the next read.
			if i == len(lines)-1 && !strings.HasSuffix(string(data), "\n") {
				remainder = []byte(line)
				continue
			}
			el.processEvent(line)
		}
	}
}

// processEvent parses and dispatches a single event line.
func (el *EventListener) processEvent(line string) {
	var event map[string]interface{}
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return
	}

	eventType, ok := event["event"].(string)
	if !ok {
		return
	}

	switch eventType {
	case "property-change":
		name, _ := event["name"].(string)
		if name != "" && el.callback != nil {
			el.callback(name, event["data"])
		}
	default:
		// Forward lifecycle events like end-file as-is.
		if el.callback != nil {
			el.callback(eventType, event)
		}
	}
}
