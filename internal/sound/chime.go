// Package sound plays the phase-completion chime.
package sound

import (
	"encoding/binary"
	"math"
)

// Output format shared by the synthesizer and the oto context.
const (
	SampleRate   = 44100
	ChannelCount = 1
)

// Chime shape: a C major triad, each note entering noteGap after the
// previous one and ringing for noteLength.
var chimeNotes = []float64{523.25, 659.25, 783.99}

const (
	noteGap    = 0.15
	noteLength = 0.8
	attack     = 0.05
	peakGain   = 0.15
	floorGain  = 0.001
)

// ChimeDuration is the length of the rendered chime in seconds.
func ChimeDuration() float64 {
	return float64(len(chimeNotes)-1)*noteGap + noteLength
}

// envelope returns the gain of a note t seconds after it starts: a linear
// ramp to peakGain, then an exponential fall to floorGain at noteLength.
func envelope(t float64) float64 {
	switch {
	case t < 0 || t >= noteLength:
		return 0
	case t < attack:
		return peakGain * t / attack
	}
	k := math.Log(floorGain/peakGain) / (noteLength - attack)
	return peakGain * math.Exp(k*(t-attack))
}

// Samples renders the chime as float samples in [-1, 1] at rate.
func Samples(rate int) []float64 {
	n := int(ChimeDuration() * float64(rate))
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(rate)
		var v float64
		for j, freq := range chimeNotes {
			local := t - float64(j)*noteGap
			if g := envelope(local); g > 0 {
				v += g * math.Sin(2*math.Pi*freq*local)
			}
		}
		out[i] = max(-1, min(1, v))
	}
	return out
}

// PCM renders the chime as signed 16-bit little-endian mono PCM.
func PCM(rate int) []byte {
	samples := Samples(rate)
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*math.MaxInt16)))
	}
	return buf
}
