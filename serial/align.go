package serial

// Padding returns the number of bytes needed to move pos forward to a
// multiple of alignment. An alignment of 0 or 1 never needs padding.
func Padding(pos, alignment uint64) uint64 {
	if alignment <= 1 {
		return 0
	}
	return (alignment - pos%alignment) % alignment
}

// AlignUp rounds pos up to the next multiple of alignment.
func AlignUp(pos, alignment uint64) uint64 {
	return pos + Padding(pos, alignment)
}
