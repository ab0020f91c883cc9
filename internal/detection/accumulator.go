package detection

import "math"

// accumulator is the (angle, distance) voting array of the Hough transform.
//
// Trigonometry is tabulated in float32 with the distance resolution folded
// in, so a vote is two multiplies, an add and a round.
type accumulator struct {
	numAngle int
	numRho   int
	offset   int
	trig     []float32 // cos, sin pairs scaled by 1/rho
	votes    []int32
}

func newAccumulator(width, height int, rho, theta float64) *accumulator {
	numAngle := int(math.RoundToEven(math.Pi / theta))
	numRho := int(math.RoundToEven(float64((width+height)*2+1) / rho))
	irho := 1 / rho

	trig := make([]float32, 2*numAngle)
	for n := 0; n < numAngle; n++ {
		trig[2*n] = float32(math.Cos(float64(n)*theta) * irho)
		trig[2*n+1] = float32(math.Sin(float64(n)*theta) * irho)
	}

	return &accumulator{
		numAngle: numAngle,
		numRho:   numRho,
		offset:   (numRho - 1) / 2,
		trig:     trig,
		votes:    make([]int32, numAngle*numRho),
	}
}

// bucket returns the distance bucket of point (x, y) at angle n.
func (a *accumulator) bucket(x, y, n int) int {
	// explicit conversions keep the products rounded to float32 separately
	r := float32(float32(x)*a.trig[2*n]) + float32(float32(y)*a.trig[2*n+1])
	return round32(r) + a.offset
}

// vote adds (x, y) to every angle bucket and returns the highest count
// reached, floored at threshold-1, with the first angle reaching it.
func (a *accumulator) vote(x, y, threshold int) (int, int) {
	maxVal, maxN := threshold-1, 0
	for n := 0; n < a.numAngle; n++ {
		i := n*a.numRho + a.bucket(x, y, n)
		a.votes[i]++
		if v := int(a.votes[i]); maxVal < v {
			maxVal, maxN = v, n
		}
	}
	return maxVal, maxN
}

// unvote withdraws every vote (x, y) would cast.
func (a *accumulator) unvote(x, y int) {
	for n := 0; n < a.numAngle; n++ {
		a.votes[n*a.numRho+a.bucket(x, y, n)]--
	}
}

// direction returns the unit step (scaled by 1/rho) along the line of angle n.
func (a *accumulator) direction(n int) (float32, float32) {
	return -a.trig[2*n+1], a.trig[2*n]
}

// mwc is a 64-bit multiply-with-carry generator with a fixed seed. It fixes
// the visiting order of edge points so extraction is reproducible.
type mwc struct {
	state uint64
}

const mwcCoeff = 4164903690

func newMWC() *mwc {
	return &mwc{state: ^uint64(0)}
}

func (r *mwc) next() uint32 {
	r.state = uint64(uint32(r.state))*mwcCoeff + r.state>>32
	return uint32(r.state)
}

// uniform returns a value in [0, n). It always advances the generator, so
// the sequence does not depend on n.
func (r *mwc) uniform(n int) int {
	return int(r.next() % uint32(n))
}
