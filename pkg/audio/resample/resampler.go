// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Converts mono float32 buffers using linear interpolation
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Stretch resamples input to exactly frames output samples using linear interpolation
func Stretch(input []float32, frames int) []float32 {
	if frames <= 0 || len(input) == 0 {
		return []float32{}
	}

	output := make([]float32, frames)
	if len(input) == frames {
		copy(output, input)
		return output
	}
	if len(input) == 1 {
		for i := range output {
			output[i] = input[0]
		}
		return output
	}

	step := float64(len(input)) / float64(frames)
	last := len(input) - 1

	for i := range output {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			output[i] = input[last]
			continue
		}

		// Linear interpolation
		frac := float32(pos - float64(idx))
		output[i] = input[idx]*(1-frac) + input[idx+1]*frac
	}

	return output
}

// StretchFrom resamples input to frames output samples, continuing from prev,
// the last input sample of the buffer played just before this one. Output
// frame i reads the input one sample behind, so every frame interpolates
// between two known samples and consecutive buffers meet without a step.
func StretchFrom(prev float32, input []float32, frames int) []float32 {
	if frames <= 0 || len(input) == 0 {
		return []float32{}
	}

	at := func(k int) float32 {
		if k == 0 {
			return prev
		}
		return input[k-1]
	}

	output := make([]float32, frames)
	step := float64(len(input)) / float64(frames)

	for i := range output {
		pos := float64(i) * step
		idx := int(pos)
		frac := float32(pos - float64(idx))
		output[i] = at(idx)*(1-frac) + at(idx+1)*frac
	}

	return output
}
