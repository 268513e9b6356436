package alphabeta

// TTFlag says how a stored score relates to the true value.
type TTFlag uint8

const (
	TTExact TTFlag = iota
	TTLower
	TTUpper
)

func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLower:
		return "lower"
	case TTUpper:
		return "upper"
	}
	return "unknown"
}

type TTEntry struct {
	Score  float64
	Depth  int
	Column int
	Flag   TTFlag
}

// TranspositionTable memoizes search results by 64-bit key. It belongs to a
// single Engine and is not safe for concurrent use.
type TranspositionTable struct {
	entries map[uint64]TTEntry
}

func NewTranspositionTable() *TranspositionTable {
	return &TranspositionTable{entries: make(map[uint64]TTEntry, 1<<14)}
}

func (tt *TranspositionTable) Get(key uint64) (TTEntry, bool) {
	e, ok := tt.entries[key]
	return e, ok
}

// Put stores e, replacing whatever was there. Callers compare depth on lookup.
func (tt *TranspositionTable) Put(key uint64, e TTEntry) {
	tt.entries[key] = e
}

func (tt *TranspositionTable) Len() int { return len(tt.entries) }

func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
}

// classify labels score against the window the node was searched with.
func classify(score, alpha, beta float64) TTFlag {
	switch {
	case score <= alpha:
		return TTUpper
	case score >= beta:
		return TTLower
	}
	return TTExact
}
