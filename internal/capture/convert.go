package capture

// channelMask keeps five bits in each half of a two-pixel word.
const channelMask = 0x1f001f

// Convert repacks the two source pixels held in p into the 5-5-5
// transmission format. r, g and b are the right shifts that bring the top
// five bits of each source channel down to bit 0.
func Convert(p uint32, r, g, b uint) uint32 {
	return (p>>b)&channelMask |
		((p>>g)&channelMask)<<5 |
		((p>>r)&channelMask)<<10
}
