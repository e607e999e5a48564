package core

// Clock measures seconds since Start. It is the coarse frame clock used by the
// engine loop; per-object pacing goes through the TimerService instead.
type Clock struct {
	source    TimeSource
	startTime float64
	elapsed   float64
	running   bool
}

func NewClock(source TimeSource) *Clock {
	if source == nil {
		source = SystemTime
	}
	return &Clock{source: source}
}

func (c *Clock) now() float64 {
	return float64(c.source.Now().UnixNano()) / 1e9
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now() - c.startTime
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.elapsed = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns seconds.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}
