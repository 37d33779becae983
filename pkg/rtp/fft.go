package rtp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2 computes the 2-D discrete Fourier transform of a real row-major
// array by transforming rows and then columns. gonum's CmplxFFT handles
// arbitrary lengths, so the grid does not need power-of-two or even
// square dimensions.
func fft2(values []float64, nrows, ncols int) []complex128 {
	data := make([]complex128, nrows*ncols)
	for i, v := range values {
		data[i] = complex(v, 0)
	}

	rowFFT := fourier.NewCmplxFFT(ncols)
	buf := make([]complex128, ncols)
	for r := 0; r < nrows; r++ {
		copy(buf, data[r*ncols:(r+1)*ncols])
		rowFFT.Coefficients(data[r*ncols:(r+1)*ncols], buf)
	}

	colFFT := fourier.NewCmplxFFT(nrows)
	colIn := make([]complex128, nrows)
	colOut := make([]complex128, nrows)
	for c := 0; c < ncols; c++ {
		for r := 0; r < nrows; r++ {
			colIn[r] = data[r*ncols+c]
		}
		colFFT.Coefficients(colOut, colIn)
		for r := 0; r < nrows; r++ {
			data[r*ncols+c] = colOut[r]
		}
	}

	return data
}

// ifft2 inverts fft2 and returns the real part, with the 1/(nrows·ncols)
// normalization gonum leaves to the caller.
func ifft2(coeffs []complex128, nrows, ncols int) []float64 {
	data := make([]complex128, len(coeffs))
	copy(data, coeffs)

	colFFT := fourier.NewCmplxFFT(nrows)
	colIn := make([]complex128, nrows)
	colOut := make([]complex128, nrows)
	for c := 0; c < ncols; c++ {
		for r := 0; r < nrows; r++ {
			colIn[r] = data[r*ncols+c]
		}
		colFFT.Sequence(colOut, colIn)
		for r := 0; r < nrows; r++ {
			data[r*ncols+c] = colOut[r]
		}
	}

	rowFFT := fourier.NewCmplxFFT(ncols)
	buf := make([]complex128, ncols)
	for r := 0; r < nrows; r++ {
		copy(buf, data[r*ncols:(r+1)*ncols])
		rowFFT.Sequence(data[r*ncols:(r+1)*ncols], buf)
	}

	scale := 1 / float64(nrows*ncols)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = real(v) * scale
	}
	return out
}

// waveNumbers returns the angular wavenumbers for an n-point transform
// with sample spacing d, in coefficient order.
func waveNumbers(n int, d float64) []float64 {
	fft := fourier.NewCmplxFFT(n)
	k := make([]float64, n)
	for i := range k {
		k[i] = 2 * math.Pi * fft.Freq(i) / d
	}
	return k
}
