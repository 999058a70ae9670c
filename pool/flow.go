package pool

import "github.com/zhukovaskychina/bplib/bperr"

// Flow is a typed view over a TagFlow slot: external id, input/output
// sub-queues, and pool-maintained active-list membership (spec §3.1, §4.2).
type Flow struct {
	pool *Pool
	idx  slotIndex
}

func (f *Flow) ID() uint64 {
	f.pool.mu.Lock()
	defer f.pool.mu.Unlock()
	return f.pool.at(f.idx).flow.id
}

// Input returns a handle onto this flow's input sub-queue.
func (f *Flow) Input() *SubQueueHandle { return &SubQueueHandle{pool: f.pool, flow: f.idx, output: false} }

// Output returns a handle onto this flow's output sub-queue.
func (f *Flow) Output() *SubQueueHandle { return &SubQueueHandle{pool: f.pool, flow: f.idx, output: true} }

// SubQueueHandle is a bound view onto one of a flow's two sub-queues.
type SubQueueHandle struct {
	pool   *Pool
	flow   slotIndex
	output bool
}

func (h *SubQueueHandle) sq() *SubQueue {
	fl := &h.pool.at(h.flow).flow
	if h.output {
		return &fl.output
	}
	return &fl.input
}

// AppendSubqBundle enforces the sub-queue's current_depth_limit. Once the
// limit is hit the push is refused and counted as a drop; this is reported
// as bperr.ErrPoolExhausted, the same kind alloc_* uses for "no room",
// since a full sub-queue is the same resource-exhaustion condition scoped
// to one flow rather than the whole pool.
func (h *SubQueueHandle) AppendSubqBundle(ref *RefBlock) error {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()

	sq := h.sq()
	if sq.depthLimit > 0 && sq.depth >= sq.depthLimit {
		sq.stats.Drops++
		return bperr.Wrap("pool.AppendSubqBundle", bperr.ErrPoolExhausted, nil)
	}

	h.pool.insertBefore(sq.head, ref.idx)
	sq.depth++
	sq.stats.Pushes++
	if sq.depth > sq.stats.HighWater {
		sq.stats.HighWater = sq.depth
	}
	return nil
}

// ShiftSubqBundle returns the head reference, or ok=false if the sub-queue
// is empty.
func (h *SubQueueHandle) ShiftSubqBundle() (*RefBlock, bool) {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()

	sq := h.sq()
	if h.pool.isEmpty(sq.head) {
		return nil, false
	}
	idx := h.pool.at(sq.head).hdr.next
	h.pool.extract(idx)
	sq.depth--
	sq.stats.Pops++
	return &RefBlock{pool: h.pool, idx: idx}, true
}

// SetDepthLimit configures the sub-queue's current_depth_limit; 0 means
// unlimited.
func (h *SubQueueHandle) SetDepthLimit(limit int) {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	h.sq().depthLimit = limit
}

// Stats returns a snapshot of this sub-queue's counters.
func (h *SubQueueHandle) Stats() SubQueueStats {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	return h.sq().stats
}

// Depth returns the current number of queued references.
func (h *SubQueueHandle) Depth() int {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	return h.sq().depth
}

// MarkFlowActive splices flow onto the pool's active list if it is not
// already there. process_all_flows iterates and clears this list.
func (p *Pool) MarkFlowActive(f *Flow) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fl := &p.at(f.idx).flow
	if fl.active {
		return
	}
	fl.active = true
	p.insertBefore(p.activeHead, f.idx)
}

// ProcessAllFlows detaches every flow from the active-flows list, leaving
// the list empty, and then calls fn for each detached flow in list order.
// fn is the forwarder; it may re-mark a flow active for a subsequent pass
// (e.g. if forwarding it only partially drained its sub-queues).
func (p *Pool) ProcessAllFlows(fn func(f *Flow)) {
	p.mu.Lock()
	var drained []slotIndex
	cur := p.at(p.activeHead).hdr.next
	for cur != p.activeHead {
		next := p.at(cur).hdr.next
		p.extract(cur)
		p.at(cur).flow.active = false
		drained = append(drained, cur)
		cur = next
	}
	p.mu.Unlock()

	for _, idx := range drained {
		fn(&Flow{pool: p, idx: idx})
	}
}
