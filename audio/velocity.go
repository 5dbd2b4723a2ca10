package audio

const (
	velocityOffset = 10
	velocityScale  = 127 + velocityOffset
)

// Gain maps a 7-bit note velocity to a linear gain in (0, 1]. A velocity of
// zero still yields a small positive gain.
func Gain(velocity int) float64 {
	return float64(velocity&0x7f+velocityOffset) / velocityScale
}
