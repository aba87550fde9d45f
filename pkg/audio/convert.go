package audio

import "encoding/binary"

// BytesToInt16 decodes little-endian signed 16-bit PCM bytes into samples.
// A trailing odd byte is ignored.
func BytesToInt16(pcm []byte) []int16 {
	n := len(pcm) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// Int16ToBytes encodes samples as little-endian signed 16-bit PCM bytes.
func Int16ToBytes(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

// ResampleMono16 converts mono s16le PCM from srcRate to dstRate using linear
// interpolation. Returns the input unchanged when the rates already match.
// Linear interpolation is adequate for voice playback; Auricle only uses this
// to bridge the remote service's output rate to the playback device rate.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return pcm
	}

	src := BytesToInt16(pcm)
	if len(src) == 0 {
		return nil
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(src)) / ratio)
	if outLen <= 0 {
		return nil
	}

	dst := make([]int16, outLen)
	for i := range dst {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(src)-1 {
			dst[i] = src[len(src)-1]
			continue
		}
		frac := pos - float64(idx)
		a, b := float64(src[idx]), float64(src[idx+1])
		dst[i] = int16(a + frac*(b-a))
	}
	return Int16ToBytes(dst)
}
