// SPDX-License-Identifier: MIT
package analysis

// PeakBin scans the first bins values of spectrum for the largest magnitude
// squared (re²+im²). The first bin wins a tie; an all-zero spectrum yields
// bin 0. It returns -1 only when there is nothing to scan.
func PeakBin(spectrum []complex128, bins int) (int, float32) {
	if bins > len(spectrum) {
		bins = len(spectrum)
	}

	maxVal := -1.0
	maxIndex := -1
	for j := range bins {
		re, im := real(spectrum[j]), imag(spectrum[j])
		v := re*re + im*im
		if v > maxVal {
			maxVal = v
			maxIndex = j
		}
	}
	if maxIndex == -1 {
		return -1, 0
	}
	return maxIndex, float32(maxVal)
}
