package schedule

// LoadMetric is the result of get_load_metric.
type LoadMetric struct {
	Start               int64
	End                 int64
	AvgReservedCapacity float64
	PossibleCapacity    float64
	Utilization         float64
}

// GetLoadMetric returns utilization over [start, end], clipped to the
// window.
func (c *Context) GetLoadMetric(start, end int64) LoadMetric {
	if start < c.windowStartTime() {
		start = c.windowStartTime()
	}
	if end > c.windowEndTime() {
		end = c.windowEndTime()
	}
	if end <= start {
		return LoadMetric{Start: start, End: end}
	}

	startSlot := c.SlotIndex(start)
	endSlot := c.SlotIndex(end - 1)

	var loadSum, capSum float64
	n := 0
	for i := startSlot; i <= endSlot; i++ {
		s := c.slotAt(i)
		loadSum += float64(s.Load)
		capSum += float64(s.Capacity)
		n++
	}
	if n == 0 {
		return LoadMetric{Start: start, End: end}
	}

	m := LoadMetric{
		Start:               start,
		End:                 end,
		AvgReservedCapacity: loadSum / float64(n),
		PossibleCapacity:    capSum / float64(n),
	}
	if m.PossibleCapacity > 0 {
		m.Utilization = m.AvgReservedCapacity / m.PossibleCapacity
	}
	return m
}

// loadSample is one historical per-slot utilization data point retained in
// the LoadBuffer after its slot leaves the sliding window.
type loadSample struct {
	capacity int64
	load     int64
}

// LoadBuffer retains per-slot utilization after the window slides past it,
// used for simulation-wide metrics once the run concludes.
type LoadBuffer struct {
	samples []loadSample
}

func newLoadBuffer() *LoadBuffer {
	return &LoadBuffer{}
}

func (b *LoadBuffer) record(capacity, load int64) {
	b.samples = append(b.samples, loadSample{capacity: capacity, load: load})
}

// GetSimulationLoadMetric aggregates the LoadBuffer, excluding
// SlotsToDropOnStart warm-up samples and SlotsToDropOnEnd cool-down samples.
func (c *Context) GetSimulationLoadMetric() LoadMetric {
	samples := c.loadBuffer.samples
	lo := SlotsToDropOnStart
	hi := len(samples) - SlotsToDropOnEnd
	if lo >= hi {
		return LoadMetric{}
	}
	effective := samples[lo:hi]

	var loadSum, capSum float64
	for _, s := range effective {
		loadSum += float64(s.load)
		capSum += float64(s.capacity)
	}
	n := float64(len(effective))
	m := LoadMetric{
		AvgReservedCapacity: loadSum / n,
		PossibleCapacity:    capSum / n,
	}
	if m.PossibleCapacity > 0 {
		m.Utilization = m.AvgReservedCapacity / m.PossibleCapacity
	}
	return m
}
