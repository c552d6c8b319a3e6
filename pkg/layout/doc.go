// Package layout computes where each image of a sequence lands on the
// combined canvas.
//
// Images are concatenated along the main axis (x for [Row], y for [Column])
// with a fixed gap between neighbours. The canvas extends to the largest
// image on the cross axis, and [Alignment] decides where smaller images sit
// along it:
//
//	row, center, gap 10:   100x50 and 80x90  ->  canvas 190x90
//	                        first at (0, 20), second at (110, 0)
//
// All arithmetic is integer; images are never scaled. [Compute] is a pure
// function of its inputs, so identical sequences and settings always yield
// identical plans.
package layout
