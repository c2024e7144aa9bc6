package bench

// TimingRecord is the mean duration of one method at one thread hint.
type TimingRecord struct {
	ThreadHint   int
	Method       MethodID
	AverageNanos int64
}

// ResultTable holds records in benchmark order.
type ResultTable []TimingRecord
