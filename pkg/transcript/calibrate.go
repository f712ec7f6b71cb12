package transcript

import (
	"math"
	"time"

	"vidscribe/pkg/media"
)

// DefaultCalibration is how much leading audio is sampled for the ambient level.
const DefaultCalibration = time.Second

// silenceDBFS is reported for digital silence and empty buffers.
const silenceDBFS = -96.0

// AmbientLevel returns the RMS level of the first window of buf in dBFS.
// The buffer is not consumed; the whole chunk is still sent to the provider.
func AmbientLevel(buf *media.AudioBuffer, window time.Duration) float64 {
	frames := int(int64(window) * int64(buf.SampleRate) / int64(time.Second))
	n := min(frames*buf.Channels, len(buf.Samples))
	if n <= 0 || buf.BitDepth <= 0 {
		return silenceDBFS
	}

	full := float64(int64(1) << (buf.BitDepth - 1))
	var sum float64
	for _, s := range buf.Samples[:n] {
		v := float64(s) / full
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(n))
	if rms == 0 {
		return silenceDBFS
	}
	return max(20*math.Log10(rms), silenceDBFS)
}
