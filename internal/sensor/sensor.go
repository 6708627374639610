package sensor

// Encoder is a distance encoder in inches.
type Encoder interface {
	Distance() float64
	Rate() float64
	Reset()
}

// DualEncoder averages the two side encoders of the drive base.
type DualEncoder struct {
	left  Encoder
	right Encoder
}

func NewDualEncoder(left, right Encoder) *DualEncoder {
	return &DualEncoder{
		left:  left,
		right: right,
	}
}

func (e *DualEncoder) Distance() float64 {
	return (e.left.Distance() + e.right.Distance()) / 2
}

func (e *DualEncoder) Rate() float64 {
	return (e.left.Rate() + e.right.Rate()) / 2
}

func (e *DualEncoder) Reset() {
	e.left.Reset()
	e.right.Reset()
}

// Inverted flips the sign of an encoder mounted backwards.
type Inverted struct {
	Encoder
}

func (e Inverted) Distance() float64 {
	return -e.Encoder.Distance()
}

func (e Inverted) Rate() float64 {
	return -e.Encoder.Rate()
}
