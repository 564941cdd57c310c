package montage

import (
	"math"
	"strconv"

	"github.com/cwbudde/algo-eeg/eeg"
)

// headRadius is the sphere radius of the idealized head in metres.
const headRadius = 0.095

// Row of the 10-10 grid: midline inclination from the vertex and azimuth
// of the outer-ring end point.
type gridRow struct {
	prefix  string
	midInc  float64
	midAz   float64
	ringAz  float64
	indices []int
}

var gridRows = []gridRow{
	{"AF", 54, 0, 36, []int{3, 4, 7, 8}},
	{"F", 36, 0, 54, []int{1, 2, 3, 4, 5, 6, 7, 8}},
	{"FC", 18, 0, 72, []int{1, 2, 3, 4, 5, 6}},
	{"C", 0, 0, 90, []int{1, 2, 3, 4, 5, 6}},
	{"CP", 18, 180, 108, []int{1, 2, 3, 4, 5, 6}},
	{"P", 36, 180, 126, []int{1, 2, 3, 4, 5, 6, 7, 8}},
	{"PO", 54, 180, 144, []int{3, 4, 7, 8}},
}

// Standard1020 returns the idealized spherical 10-20 template extended with
// the 10-10 positions, including the legacy T3/T4/T5/T6 labels.
func Standard1020() *Montage {
	pos := map[string]eeg.Position{
		"Fpz": sph(72, 0), "Fp1": sph(72, 18), "Fp2": sph(72, -18),
		"FT7": sph(72, 72), "FT8": sph(72, -72),
		"T7": sph(72, 90), "T8": sph(72, -90),
		"TP7": sph(72, 108), "TP8": sph(72, -108),
		"O1": sph(72, 162), "O2": sph(72, -162), "Oz": sph(72, 180),
		"T9": sph(108, 90), "T10": sph(108, -90),
		"Iz": sph(108, 180), "Nz": sph(108, 0),
	}
	for _, row := range gridRows {
		mid := sph(row.midInc, row.midAz)
		left := sph(72, row.ringAz)
		right := sph(72, -row.ringAz)
		pos[row.prefix+"z"] = mid
		for _, k := range row.indices {
			frac := float64((k+1)/2) / 4
			end := left
			if k%2 == 0 {
				end = right
			}
			pos[row.prefix+strconv.Itoa(k)] = slerp(mid, end, frac)
		}
	}
	pos["T3"], pos["T4"] = pos["T7"], pos["T8"]
	pos["T5"], pos["T6"] = pos["P7"], pos["P8"]
	return New("standard_1020", pos)
}

// sph converts inclination from the vertex and azimuth from the nose
// (positive towards the left ear), both in degrees, to head coordinates
// with +X right, +Y nose and +Z up.
func sph(incDeg, azDeg float64) eeg.Position {
	inc := incDeg * math.Pi / 180
	az := azDeg * math.Pi / 180
	return eeg.Position{
		X: -headRadius * math.Sin(inc) * math.Sin(az),
		Y: headRadius * math.Sin(inc) * math.Cos(az),
		Z: headRadius * math.Cos(inc),
	}
}

// slerp interpolates along the great circle from a to b.
func slerp(a, b eeg.Position, t float64) eeg.Position {
	dot := (a.X*b.X + a.Y*b.Y + a.Z*b.Z) / (headRadius * headRadius)
	omega := math.Acos(math.Max(-1, math.Min(1, dot)))
	if omega < 1e-12 {
		return a
	}
	s := math.Sin(omega)
	wa := math.Sin((1-t)*omega) / s
	wb := math.Sin(t*omega) / s
	return eeg.Position{
		X: wa*a.X + wb*b.X,
		Y: wa*a.Y + wb*b.Y,
		Z: wa*a.Z + wb*b.Z,
	}
}
