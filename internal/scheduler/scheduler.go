// Package scheduler spreads per-object simulation and erosion work across
// frames under a fixed per-frame throughput budget.
//
// Registered objects are identified by Handles into an arena; the
// scheduler never holds the objects themselves. Registry order is turn
// order. Each frame the registry is split into ceil(count/throughput)
// buckets and one bucket per cadence gets its turn, so the per-frame cost
// stays O(throughput) no matter how many objects exist.
package scheduler

// Handle identifies a registered object. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h was ever issued by a scheduler.
func (h Handle) Valid() bool {
	return h.gen != 0
}

// ThroughputSource is polled once per Advance for the per-frame budget.
type ThroughputSource interface {
	Throughput() int
}

// Config holds the cadence settings.
type Config struct {
	SimulationFrequency int // Minimum frames between two simulation turns of one object
	ErosionFrequency    int // Minimum frames between two erosion turns of one object
	ErosionPhaseOffset  int // Bucket shift so erosion and simulation pick different objects
	Throughput          int // Used when no ThroughputSource is set
}

const neverServiced int64 = -1 << 62

type slot struct {
	gen    uint32
	alive  bool
	pos    int  // Index into order while alive
	forced bool // Erosion forced on the next check
}

// Scheduler is the fleet-wide turn allocator. It is driven from the main
// tick and is not safe for concurrent use.
type Scheduler struct {
	cfg    Config
	source ThroughputSource

	frame      int64
	throughput int

	slots   []slot
	free    []uint32
	order   []uint32 // Slot indices in registration order
	lastSim []int64  // Parallel to slots
	lastEro []int64  // Parallel to slots
}

// New creates a scheduler. source may be nil.
func New(cfg Config, source ThroughputSource) *Scheduler {
	cfg.SimulationFrequency = max(cfg.SimulationFrequency, 1)
	cfg.ErosionFrequency = max(cfg.ErosionFrequency, 1)
	cfg.Throughput = max(cfg.Throughput, 1)

	s := &Scheduler{
		cfg:        cfg,
		source:     source,
		throughput: cfg.Throughput,
	}
	s.pollThroughput()
	return s
}

// Register appends a new entry to the end of the turn order.
func (s *Scheduler) Register() Handle {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
		s.lastSim = append(s.lastSim, 0)
		s.lastEro = append(s.lastEro, 0)
	}

	sl := &s.slots[idx]
	sl.gen++
	sl.alive = true
	sl.forced = false
	sl.pos = len(s.order)
	s.order = append(s.order, idx)
	s.lastSim[idx] = neverServiced
	s.lastEro[idx] = neverServiced

	return Handle{index: idx, gen: sl.gen}
}

// Unregister removes h from the turn order. Unknown handles are ignored.
func (s *Scheduler) Unregister(h Handle) {
	if !s.alive(h) {
		return
	}

	sl := &s.slots[h.index]
	pos := sl.pos
	copy(s.order[pos:], s.order[pos+1:])
	s.order = s.order[:len(s.order)-1]
	for i := pos; i < len(s.order); i++ {
		s.slots[s.order[i]].pos = i
	}

	sl.alive = false
	s.free = append(s.free, h.index)
}

// Registered reports whether h is currently in the registry.
func (s *Scheduler) Registered(h Handle) bool {
	return s.alive(h)
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int {
	return len(s.order)
}

// Frame returns the global frame counter.
func (s *Scheduler) Frame() int64 {
	return s.frame
}

// Throughput returns the budget in effect for the current frame.
func (s *Scheduler) Throughput() int {
	return s.throughput
}

// Advance moves to the next frame and polls the throughput source.
func (s *Scheduler) Advance() {
	s.frame++
	s.pollThroughput()
}

// ShouldRunSimulation reports whether h takes its simulation turn this
// frame. A true answer counts as servicing h.
func (s *Scheduler) ShouldRunSimulation(h Handle) bool {
	if !s.alive(h) {
		return false
	}
	if !s.cooledDown(s.lastSim[h.index], s.cfg.SimulationFrequency) || !s.inTurn(h, 0) {
		return false
	}
	s.lastSim[h.index] = s.frame
	return true
}

// ShouldRunErosion reports whether h takes its erosion turn this frame.
// A true answer counts as servicing h.
func (s *Scheduler) ShouldRunErosion(h Handle) bool {
	if !s.alive(h) {
		return false
	}

	sl := &s.slots[h.index]
	if !sl.forced {
		if !s.cooledDown(s.lastEro[h.index], s.cfg.ErosionFrequency) || !s.inTurn(h, s.cfg.ErosionPhaseOffset) {
			return false
		}
	}
	sl.forced = false
	s.lastEro[h.index] = s.frame
	return true
}

// ForceErosionNextTick clears h's erosion cooldown so the next
// ShouldRunErosion check succeeds regardless of turn.
func (s *Scheduler) ForceErosionNextTick(h Handle) {
	if !s.alive(h) {
		return
	}
	s.lastEro[h.index] = neverServiced
	s.slots[h.index].forced = true
}

func (s *Scheduler) alive(h Handle) bool {
	if !h.Valid() || int(h.index) >= len(s.slots) {
		return false
	}
	sl := s.slots[h.index]
	return sl.alive && sl.gen == h.gen
}

func (s *Scheduler) cooledDown(last int64, frequency int) bool {
	return s.frame-last >= int64(frequency)
}

// inTurn checks whether h's registry position falls in the active bucket.
func (s *Scheduler) inTurn(h Handle, offset int) bool {
	count := len(s.order)
	if count == 0 {
		return false
	}

	t := s.throughput
	buckets := int64(max(1, (count+t-1)/t))
	active := (s.frame + int64(offset)) % buckets
	if active < 0 {
		active += buckets
	}

	start := int(active) * t
	pos := s.slots[h.index].pos
	return pos >= start && pos < start+t
}

func (s *Scheduler) pollThroughput() {
	if s.source == nil {
		s.throughput = s.cfg.Throughput
		return
	}
	s.throughput = max(s.source.Throughput(), 1)
}
