package pool

// SubQueueStats tracks a sub-queue's push/pop counts, high-water mark, and
// drops due to depth-limit enforcement -- named explicitly in spec §3.1.
type SubQueueStats struct {
	Pushes    uint64
	Pops      uint64
	Drops     uint64
	HighWater int
}
