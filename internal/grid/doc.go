// Package grid lays out up to nine square cells inside a square canvas.
// The layout is fixed per item count: a centred cell for one item, a row for
// two, an L-shape for three and four, centred rows up to six, and a full
// three-column grid from seven onwards.
package grid
