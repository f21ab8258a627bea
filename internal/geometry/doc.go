// Package geometry locates a trading card in a camera frame and
// rectifies it to a canonical upright rectangle.
//
// Detection is contour-based: the frame is blurred, gradient edges are
// extracted, connected edge pixels are grouped into contours, and the
// largest contour is reduced to a convex quadrilateral. A frame with no
// qualifying quadrilateral is a normal outcome (Detect reports it with
// a false second return, never an error) and the pipeline proceeds to
// mark the cycle unrecognized.
//
// # Corner ordering
//
// The four corners are ordered top-left, top-right, bottom-right,
// bottom-left using coordinate sums and differences: the smallest x+y
// is the top-left, the largest x+y the bottom-right, the smallest y-x
// the top-right, and the largest y-x the bottom-left. The rule is
// rotation-invariant for the card-shaped quadrilaterals the contour
// step produces, so a card fed in upside down still rectifies to the
// same canonical orientation.
//
// # Rectification
//
// A projective transform is solved from the four ordered corners to the
// canonical rectangle (720x1024 by default, the aspect of a standard
// trading card) and the output is filled by inverse mapping with
// bilinear sampling, so every canonical pixel is defined.
package geometry
