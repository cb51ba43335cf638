// Package superpixel partitions an image into perceptually coherent regions
// with SLIC clustering over CIELAB colour and pixel position.
package superpixel

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidInput is returned for buffers that do not match the given size.
var ErrInvalidInput = errors.New("invalid superpixel input")

// Options tunes the clustering.
type Options struct {
	// Compactness weighs colour distance against spatial distance. Colour is
	// measured on go-colorful's Lab scale (L in [0,1]), so 0.1 corresponds to
	// the usual m=10 on a 0..100 scale. Higher values give squarer regions.
	Compactness float64
	// Iterations of the assign/update loop.
	Iterations int
}

// DefaultOptions returns the options used by Segment.
func DefaultOptions() Options {
	return Options{
		Compactness: 0.1,
		Iterations:  10,
	}
}

// Map is the result of a segmentation. It is read-only once returned.
type Map struct {
	Width  int
	Height int
	// Count is the number of distinct labels; labels are 0..Count-1.
	Count int
	// Labels maps every pixel, row-major, to its superpixel label.
	Labels []int32
	// LabelMap is an RGBA raster with each pixel's label packed into R,G,B
	// (R is the low byte) and alpha 255.
	LabelMap []uint8
}

// Segment partitions an RGBA buffer into approximately targetCount regions.
func Segment(pixels []uint8, width, height, targetCount int) (*Map, error) {
	return SegmentWithOptions(pixels, width, height, targetCount, DefaultOptions())
}

// SegmentWithOptions is Segment with explicit options. targetCount is clamped
// to [1, width*height]; when it reaches the pixel count every pixel gets its
// own label.
func SegmentWithOptions(pixels []uint8, width, height, targetCount int, opts Options) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidInput, width, height)
	}
	n := width * height
	if len(pixels) != n*4 {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d RGBA", ErrInvalidInput, len(pixels), width, height)
	}
	if opts.Compactness <= 0 {
		opts.Compactness = DefaultOptions().Compactness
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultOptions().Iterations
	}

	targetCount = max(1, min(targetCount, n))
	if targetCount == n {
		labels := make([]int32, n)
		for i := range labels {
			labels[i] = int32(i)
		}
		return newMap(width, height, n, labels), nil
	}

	lab := toLab(pixels, n)
	clusters := cluster(lab, width, height, targetCount, opts)
	labels, count := enforceConnectivity(clusters, width, height, targetCount)
	return newMap(width, height, count, labels), nil
}

type center struct {
	l, a, b, x, y float64
}

// toLab converts non-premultiplied RGBA to interleaved L,a,b.
func toLab(pixels []uint8, n int) []float64 {
	lab := make([]float64, n*3)
	for i := 0; i < n; i++ {
		c := colorful.Color{
			R: float64(pixels[i*4]) / 255.0,
			G: float64(pixels[i*4+1]) / 255.0,
			B: float64(pixels[i*4+2]) / 255.0,
		}
		lab[i*3], lab[i*3+1], lab[i*3+2] = c.Lab()
	}
	return lab
}

func cluster(lab []float64, w, h, target int, opts Options) []int {
	step := max(int(math.Sqrt(float64(w*h)/float64(target))), 1)
	centers := seedCenters(lab, w, h, step)

	clusters := make([]int, w*h)
	distances := make([]float64, w*h)
	ns := float64(step)
	nc := opts.Compactness

	for iter := 0; iter < opts.Iterations; iter++ {
		for i := range distances {
			distances[i] = math.MaxFloat64
			clusters[i] = -1
		}
		for ci, c := range centers {
			x0, x1 := max(int(c.x)-step, 0), min(int(c.x)+step+1, w)
			y0, y1 := max(int(c.y)-step, 0), min(int(c.y)+step+1, h)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					idx := y*w + x
					dL := lab[idx*3] - c.l
					dA := lab[idx*3+1] - c.a
					dB := lab[idx*3+2] - c.b
					dx := float64(x) - c.x
					dy := float64(y) - c.y
					dc := (dL*dL + dA*dA + dB*dB) / (nc * nc)
					ds := (dx*dx + dy*dy) / (ns * ns)
					if d := dc + ds; d < distances[idx] {
						distances[idx] = d
						clusters[idx] = ci
					}
				}
			}
		}
		assignOrphans(clusters, centers, w)

		type acc struct {
			l, a, b, x, y float64
			n             int
		}
		sums := make([]acc, len(centers))
		for idx, ci := range clusters {
			s := &sums[ci]
			s.l += lab[idx*3]
			s.a += lab[idx*3+1]
			s.b += lab[idx*3+2]
			s.x += float64(idx % w)
			s.y += float64(idx / w)
			s.n++
		}
		for ci := range centers {
			if s := sums[ci]; s.n > 0 {
				n := float64(s.n)
				centers[ci] = center{s.l / n, s.a / n, s.b / n, s.x / n, s.y / n}
			}
		}
	}
	return clusters
}

// seedCenters places centres on a regular grid and nudges each one to the
// lowest-gradient pixel of its 3x3 neighbourhood.
func seedCenters(lab []float64, w, h, step int) []center {
	var centers []center
	for cy := step / 2; cy < h; cy += step {
		for cx := step / 2; cx < w; cx += step {
			bx, by := cx, cy
			best := math.MaxFloat64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					x, y := cx+dx, cy+dy
					if x < 0 || x >= w-1 || y < 0 || y >= h-1 {
						continue
					}
					i := (y*w + x) * 3
					right := ((y*w + x + 1) * 3)
					down := (((y+1)*w + x) * 3)
					grad := math.Abs(lab[right]-lab[i]) + math.Abs(lab[down]-lab[i])
					if grad < best {
						best = grad
						bx, by = x, y
					}
				}
			}
			i := (by*w + bx) * 3
			centers = append(centers, center{lab[i], lab[i+1], lab[i+2], float64(bx), float64(by)})
		}
	}
	if len(centers) == 0 {
		// thin images where the grid offset falls outside
		cx, cy := w/2, h/2
		i := (cy*w + cx) * 3
		centers = append(centers, center{lab[i], lab[i+1], lab[i+2], float64(cx), float64(cy)})
	}
	return centers
}

// assignOrphans gives pixels no search window reached to the spatially
// nearest centre.
func assignOrphans(clusters []int, centers []center, w int) {
	for idx, ci := range clusters {
		if ci >= 0 {
			continue
		}
		x, y := float64(idx%w), float64(idx/w)
		best := math.MaxFloat64
		for cj, c := range centers {
			if d := (x-c.x)*(x-c.x) + (y-c.y)*(y-c.y); d < best {
				best = d
				clusters[idx] = cj
			}
		}
	}
}

// enforceConnectivity relabels clusters into 4-connected components and
// merges components smaller than a quarter of the expected superpixel size
// into the previously labelled neighbour.
func enforceConnectivity(clusters []int, w, h, target int) ([]int32, int) {
	labels := make([]int32, w*h)
	for i := range labels {
		labels[i] = -1
	}
	minSize := max((w*h)/target, 1) >> 2
	dx4 := [4]int{-1, 0, 1, 0}
	dy4 := [4]int{0, -1, 0, 1}

	var label int32
	queue := make([]int, 0, 64)
	for start := range labels {
		if labels[start] != -1 {
			continue
		}
		sx, sy := start%w, start/w
		adjacent := label
		for k := 0; k < 4; k++ {
			nx, ny := sx+dx4[k], sy+dy4[k]
			if nx >= 0 && nx < w && ny >= 0 && ny < h && labels[ny*w+nx] >= 0 {
				adjacent = labels[ny*w+nx]
				break
			}
		}

		queue = append(queue[:0], start)
		labels[start] = label
		for i := 0; i < len(queue); i++ {
			cur := queue[i]
			cx, cy := cur%w, cur/w
			for k := 0; k < 4; k++ {
				nx, ny := cx+dx4[k], cy+dy4[k]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				next := ny*w + nx
				if labels[next] == -1 && clusters[next] == clusters[cur] {
					labels[next] = label
					queue = append(queue, next)
				}
			}
		}

		if len(queue) <= minSize && adjacent != label {
			for _, idx := range queue {
				labels[idx] = adjacent
			}
			continue
		}
		label++
	}
	return labels, int(label)
}

func newMap(w, h, count int, labels []int32) *Map {
	labelMap := make([]uint8, len(labels)*4)
	for i, l := range labels {
		labelMap[i*4] = uint8(l)
		labelMap[i*4+1] = uint8(l >> 8)
		labelMap[i*4+2] = uint8(l >> 16)
		labelMap[i*4+3] = 255
	}
	return &Map{
		Width:    w,
		Height:   h,
		Count:    count,
		Labels:   labels,
		LabelMap: labelMap,
	}
}

// Label returns the label at (x, y), or -1 outside the image.
func (m *Map) Label(x, y int) int {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return -1
	}
	return int(m.Labels[y*m.Width+x])
}

// Mask returns a binary mask with 255 on the pixels of label.
func (m *Map) Mask(label int) []byte {
	mask := make([]byte, len(m.Labels))
	for i, l := range m.Labels {
		if int(l) == label {
			mask[i] = 255
		}
	}
	return mask
}

// Bounds returns the pixel rectangle covered by every label, indexed by label.
func (m *Map) Bounds() []image.Rectangle {
	bounds := make([]image.Rectangle, m.Count)
	for i, l := range m.Labels {
		x, y := i%m.Width, i/m.Width
		bounds[l] = bounds[l].Union(image.Rect(x, y, x+1, y+1))
	}
	return bounds
}
