package imaging

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

// CenterCrop returns the largest centered square of m.
func CenterCrop(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	size := min(r, c)
	top := (r - size) / 2
	left := (c - size) / 2
	return mat.DenseCopyOf(m.Slice(top, top+size, left, left+size))
}

// Resize scales m to size x size with bilinear interpolation. Values are
// quantized to 16 bits over their own range for the scaling pass and then
// mapped back, so the output keeps the input's value range.
func Resize(m *mat.Dense, size int) *mat.Dense {
	r, c := m.Dims()
	if size <= 0 || (r == size && c == size) {
		return mat.DenseCopyOf(m)
	}

	raw := m.RawMatrix()
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i := 0; i < r; i++ {
		for _, v := range raw.Data[i*raw.Stride : i*raw.Stride+c] {
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	span := maxV - minV
	if span == 0 {
		out := mat.NewDense(size, size, nil)
		out.Apply(func(_, _ int, _ float64) float64 { return minV }, out)
		return out
	}

	src := image.NewGray16(image.Rect(0, 0, c, r))
	for y := 0; y < r; y++ {
		for x := 0; x < c; x++ {
			q := (m.At(y, x) - minV) / span * 65535
			src.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(q))})
		}
	}

	dst := image.NewGray16(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := mat.NewDense(size, size, nil)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			out.Set(y, x, float64(dst.Gray16At(x, y).Y)/65535*span+minV)
		}
	}
	return out
}
