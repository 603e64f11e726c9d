package mathx

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 maps (seed, a) to a uniform 64-bit value. Draws made with
// distinct inputs are independent, so callers need no shared stream.
func Hash2(seed, a uint64) uint64 {
	v := seed ^ (a * 0x9e3779b97f4a7c15)
	return mix64(v)
}

// Hash3 maps (seed, a, b) to a uniform 64-bit value.
func Hash3(seed, a, b uint64) uint64 {
	v := seed ^ (a * 0x9e3779b97f4a7c15) ^ (b * 0xc2b2ae3d27d4eb4f)
	return mix64(v)
}

// PickN reduces h to an index in [0, n). n must be positive.
func PickN(h uint64, n int) int {
	return int(h % uint64(n))
}
