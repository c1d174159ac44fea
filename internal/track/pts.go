package track

// PTS is a presentation timestamp expressed as a rational value over a
// timescale, matching the numerator/timescale pairs ffprobe and ffmpeg
// report and accept.
type PTS struct {
	Num int64
	Den int64
}

// Seconds converts the rational PTS to a float64 number of seconds. Used
// only for progress reporting and ordering checks; never for the field
// arithmetic itself, which stays exact.
func (p PTS) Seconds() float64 {
	if p.Den == 0 {
		return 0
	}
	return float64(p.Num) / float64(p.Den)
}

// Add returns p + other, exactly, by cross-multiplying denominators.
func (p PTS) Add(other PTS) PTS {
	if p.Den == other.Den {
		return PTS{Num: p.Num + other.Num, Den: p.Den}
	}
	return PTS{
		Num: p.Num*other.Den + other.Num*p.Den,
		Den: p.Den * other.Den,
	}
}

// Less reports whether p < other, exactly.
func (p PTS) Less(other PTS) bool {
	return p.Num*other.Den < other.Num*p.Den
}

// Equal reports whether p == other as rational values (not requiring the
// same Num/Den representation).
func (p PTS) Equal(other PTS) bool {
	return p.Num*other.Den == other.Num*p.Den
}
