package signal

// Signal is the per-instrument trade decision for one run.
type Signal string

const (
	Buy  Signal = "BUY"
	Hold Signal = "HOLD"
)

// FromScore maps a model score to a signal: BUY only when the model picked the
// up class and its confidence clears the threshold. The class gates the
// confidence; a confident down-class prediction is still HOLD.
func FromScore(class int, confidence, threshold float64) Signal {
	if class == 1 && confidence >= threshold {
		return Buy
	}
	return Hold
}
