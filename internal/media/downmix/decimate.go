package downmix

// decimator box-averages a stream of mono samples from srcRate down to
// dstRate. Output sample j is the mean of the input samples i with
// floor(i*dstRate/srcRate) == j.
type decimator struct {
	srcRate int64
	dstRate int64
	index   int64
	bin     int64
	sum     float64
	count   int
	out     []float64
}

func newDecimator(srcRate, dstRate int, expected int64) *decimator {
	if dstRate <= 0 || dstRate > srcRate {
		dstRate = srcRate
	}
	d := &decimator{srcRate: int64(srcRate), dstRate: int64(dstRate)}
	if expected > 0 {
		d.out = make([]float64, 0, expected*int64(dstRate)/int64(srcRate)+1)
	}
	return d
}

func (d *decimator) rate() int {
	return int(d.dstRate)
}

func (d *decimator) push(v float64) {
	bin := d.index * d.dstRate / d.srcRate
	if bin != d.bin && d.count > 0 {
		d.out = append(d.out, d.sum/float64(d.count))
		d.sum = 0
		d.count = 0
	}
	d.bin = bin
	d.sum += v
	d.count++
	d.index++
}

func (d *decimator) flush() []float64 {
	if d.count > 0 {
		d.out = append(d.out, d.sum/float64(d.count))
		d.sum = 0
		d.count = 0
	}
	return d.out
}
