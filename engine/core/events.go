package core

import (
	"reflect"
	"sync"

	"github.com/spaghettifunk/anima2d/engine/containers"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Mouse button pressed. Data: *MouseEvent
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04
	// Mouse button released. Data: *MouseEvent
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05
	// Mouse moved. Data: *MouseEvent
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06
	// Mouse wheel. Data: *MouseEvent
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07
	// Resized/resolution changed from the OS. Data: *SystemEvent
	EVENT_CODE_RESIZED EventCode = 0x08
	// Hitbox overlay / stats panel toggled. Data: nil
	EVENT_CODE_DEBUG_TOGGLED EventCode = 0x09

	MAX_EVENT_CODE EventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Events posted from platform callbacks are buffered up to this many per frame.
const MAX_QUEUED_EVENTS = 1024

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   uint16
	PosY   uint16
	Scroll int8
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

// FnOnEvent handles one event. Returning true marks the event handled so no
// further listeners receive it.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	callback FnOnEvent
}

// EventSystem dispatches events to registered listeners. Fire dispatches
// immediately; Post buffers the event until ProcessEvents is called from the
// frame loop.
type EventSystem struct {
	mutex      sync.Mutex
	registered map[EventCode][]*registeredEvent
	queue      *containers.RingQueue[EventContext]
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[EventCode][]*registeredEvent),
		queue:      containers.NewRingQueue[EventContext](MAX_QUEUED_EVENTS),
	}
}

func (es *EventSystem) Shutdown() error {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	// Objects pointed to should be destroyed on their own.
	es.registered = make(map[EventCode][]*registeredEvent)
	return nil
}

func sameCallback(a, b FnOnEvent) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Register listens for events sent with the provided code. Registering the same
// callback twice for a code is refused and returns false.
func (es *EventSystem) Register(code EventCode, onEvent FnOnEvent) bool {
	if onEvent == nil || int(code) >= MAX_MESSAGE_CODES {
		return false
	}
	es.mutex.Lock()
	defer es.mutex.Unlock()

	for _, e := range es.registered[code] {
		if sameCallback(e.callback, onEvent) {
			LogWarn("callback already registered for event code `%d`", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], &registeredEvent{callback: onEvent})
	return true
}

// Unregister stops listening. Returns false if no matching registration exists.
func (es *EventSystem) Unregister(code EventCode, onEvent FnOnEvent) bool {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if sameCallback(e.callback, onEvent) {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends the event to the listeners of its code, in registration order,
// until one of them handles it. Returns true if handled.
func (es *EventSystem) Fire(context EventContext) bool {
	es.mutex.Lock()
	listeners := make([]*registeredEvent, len(es.registered[context.Type]))
	copy(listeners, es.registered[context.Type])
	es.mutex.Unlock()

	for _, e := range listeners {
		if e.callback(context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// Post buffers an event for the next ProcessEvents call. Events beyond the
// queue capacity are dropped with a warning.
func (es *EventSystem) Post(context EventContext) {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	if err := es.queue.Enqueue(context); err != nil {
		LogWarn("event queue full, dropping event `%d`", context.Type)
	}
}

// ProcessEvents fires every buffered event. Returns how many were processed.
func (es *EventSystem) ProcessEvents() int {
	processed := 0
	for {
		es.mutex.Lock()
		context, err := es.queue.Dequeue()
		es.mutex.Unlock()
		if err != nil {
			return processed
		}
		es.Fire(context)
		processed++
	}
}
