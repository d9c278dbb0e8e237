// Package imaging holds the raster helpers used to build group icons:
// solid fills, crops, resampling, canvas growth, the grid composer and the
// codecs accepted for uploads.
package imaging
