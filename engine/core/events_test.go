package core

import "testing"

func TestEventSystemFireStopsWhenHandled(t *testing.T) {
	es := NewEventSystem()

	var calls []string
	first := func(ctx EventContext) bool {
		calls = append(calls, "first")
		return true
	}
	second := func(ctx EventContext) bool {
		calls = append(calls, "second")
		return false
	}

	if !es.Register(EVENT_CODE_KEY_PRESSED, first) {
		t.Fatal("Register(first) = false")
	}
	if !es.Register(EVENT_CODE_KEY_PRESSED, second) {
		t.Fatal("Register(second) = false")
	}
	if es.Register(EVENT_CODE_KEY_PRESSED, first) {
		t.Error("duplicate Register(first) = true, want false")
	}

	if !es.Fire(EventContext{Type: EVENT_CODE_KEY_PRESSED}) {
		t.Error("Fire() = false, want handled")
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Errorf("calls = %v, want [first]", calls)
	}

	if !es.Unregister(EVENT_CODE_KEY_PRESSED, first) {
		t.Fatal("Unregister(first) = false")
	}
	calls = nil
	if es.Fire(EventContext{Type: EVENT_CODE_KEY_PRESSED}) {
		t.Error("Fire() = true, want unhandled")
	}
	if len(calls) != 1 || calls[0] != "second" {
		t.Errorf("calls = %v, want [second]", calls)
	}
}

func TestEventSystemPostIsDeferred(t *testing.T) {
	es := NewEventSystem()
	received := 0
	es.Register(EVENT_CODE_RESIZED, func(ctx EventContext) bool {
		se, ok := ctx.Data.(*SystemEvent)
		if ok && se.WindowWidth == 640 {
			received++
		}
		return true
	})

	es.Post(EventContext{Type: EVENT_CODE_RESIZED, Data: &SystemEvent{WindowWidth: 640, WindowHeight: 480}})
	if received != 0 {
		t.Fatal("posted event dispatched before ProcessEvents")
	}
	if n := es.ProcessEvents(); n != 1 {
		t.Errorf("ProcessEvents() = %d, want 1", n)
	}
	if received != 1 {
		t.Errorf("received = %d, want 1", received)
	}
}

func TestInputPressedHeldReleased(t *testing.T) {
	es := NewEventSystem()
	in := NewInputSystem(es)

	pressedEvents := 0
	es.Register(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) bool {
		pressedEvents++
		return false
	})

	in.ProcessKey(KEY_SPACE, true)
	if !in.IsKeyPressed(KEY_SPACE) {
		t.Error("IsKeyPressed = false on the frame the key went down")
	}
	if in.IsKeyHeld(KEY_SPACE) {
		t.Error("IsKeyHeld = true on the first frame")
	}

	in.Update()
	if in.IsKeyPressed(KEY_SPACE) {
		t.Error("IsKeyPressed = true on the second frame")
	}
	if !in.IsKeyHeld(KEY_SPACE) {
		t.Error("IsKeyHeld = false on the second frame")
	}

	in.ProcessKey(KEY_SPACE, false)
	if !in.IsKeyReleased(KEY_SPACE) || !in.IsKeyJustReleased(KEY_SPACE) {
		t.Error("key not reported released")
	}

	// Repeated state does not post a second event.
	in.ProcessKey(KEY_LEFT, true)
	in.ProcessKey(KEY_LEFT, true)
	es.ProcessEvents()
	if pressedEvents != 2 {
		t.Errorf("pressed events = %d, want 2", pressedEvents)
	}
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 70; i++ {
		m.Update(1.0 / 60.0)
	}
	if m.FrameFPS() < 59 || m.FrameFPS() > 61 {
		t.Errorf("FPS = %f, want ~60", m.FrameFPS())
	}
	if ft := m.FrameTime(); ft < 16.6 || ft > 16.7 {
		t.Errorf("FrameTime = %f, want ~16.67", ft)
	}
}

func TestIdentifierGeneratorMonotonic(t *testing.T) {
	g := NewIdentifierGenerator()
	prev := uint32(0)
	for i := 0; i < 10; i++ {
		id := g.AquireNewID()
		if id <= prev {
			t.Fatalf("id %d not greater than %d", id, prev)
		}
		prev = id
	}
	if g.Last() != prev {
		t.Errorf("Last() = %d, want %d", g.Last(), prev)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
