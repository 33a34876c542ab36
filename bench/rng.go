package bench

// rng is a small multiplicative generator, cheap enough to sit inside timed
// loops without distorting the measurement.
type rng uint32

func (r *rng) next() uint32 {
	k := *r
	*r = k*5 + 1
	k *= 0x53215995
	return uint32(k ^ (k<<7 | k>>25) ^ (k<<13 | k>>19))
}
