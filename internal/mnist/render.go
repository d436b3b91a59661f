package mnist

import "strings"

// Render draws a grayscale image as text, one line per row, using shade
// characters for pixel intensities above 0.8, 0.6, 0.4 and 0.2 of full scale.
func Render(img []byte, rows, cols int) string {
	var b strings.Builder
	b.Grow(rows * (cols*3 + 1))
	for r := range rows {
		for c := range cols {
			b.WriteString(shade(float64(img[r*cols+c]) / 255.0))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func shade(v float64) string {
	switch {
	case v > 0.8:
		return "█"
	case v > 0.6:
		return "▓"
	case v > 0.4:
		return "▒"
	case v > 0.2:
		return "░"
	default:
		return " "
	}
}
