package schedule

// Fragmentation implements the two "Fragmentation" modes. Both walk
// utilization levels k in [1, capacity] and, per level, find the largest
// contiguous run (no ring wraparound — a queried sub-range is a plain
// ascending sequence of logical slots) of slots whose free capacity is at
// least k, and total_free, the sum over the range of max(0, free-(k-1)). The
// run is measured in the same units as total_free (the sum of
// max(0, free-(k-1)) over its slots), so a range whose free capacity is one
// contiguous block scores 0. The exact split between "resubmit mean" and
// "quadratic mean" is left to the implementer; this
// module takes "quadratic mean" to square the run/total_free ratio before
// averaging (rewarding one big contiguous block more than several small
// ones of the same combined size) and "resubmit mean" to average the linear
// ratio. When total_free is 0 for a level (no free capacity at all, as in
// S3) that level contributes 0 rather than dividing by zero.
func (c *Context) fragmentationOver(startSlot, endSlot int64) float64 {
	if endSlot < startSlot {
		return 0.0
	}
	n := endSlot - startSlot + 1
	free := make([]int64, n)
	for i := int64(0); i < n; i++ {
		free[i] = c.slotAt(startSlot + i).Available()
	}

	capacity := c.resourceCap
	if capacity <= 0 {
		return 0.0
	}

	var sum float64
	for k := int64(1); k <= capacity; k++ {
		var totalFree int64
		var bestRun, curRun int64
		for _, f := range free {
			clipped := f - (k - 1)
			if clipped < 0 {
				clipped = 0
			}
			totalFree += clipped

			if f >= k {
				curRun += clipped
				if curRun > bestRun {
					bestRun = curRun
				}
			} else {
				curRun = 0
			}
		}

		if totalFree == 0 {
			continue // contributes 0
		}

		ratio := float64(bestRun) / float64(totalFree)
		if c.useQuadraticMeanFrag {
			ratio *= ratio
		}
		frag := 1.0 - ratio
		if frag < 0 {
			frag = 0
		}
		sum += frag
	}

	return sum / float64(capacity)
}

// GetFragmentation returns the fragmentation over [startTime, endTime],
// clipped to the window.
func (c *Context) GetFragmentation(startTime, endTime int64) float64 {
	c.Update()
	if startTime < c.windowStartTime() {
		startTime = c.windowStartTime()
	}
	if endTime > c.windowEndTime() {
		endTime = c.windowEndTime()
	}
	if endTime <= startTime {
		return 0.0
	}
	return c.fragmentationOver(c.SlotIndex(startTime), c.SlotIndex(endTime-1))
}

// GetSystemFragmentation returns the cached fragmentation over the entire
// window, recomputing if the cache is dirty.
func (c *Context) GetSystemFragmentation() float64 {
	c.Update()
	if !c.fragCacheUpToDate {
		c.fragCache = c.fragmentationOver(c.windowStartSlot, c.windowEndSlot()-1)
		c.fragCacheUpToDate = true
	}
	return c.fragCache
}
