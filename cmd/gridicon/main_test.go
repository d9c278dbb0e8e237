package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/icon-grid/internal/imaging"
)

func writePNG(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, imaging.Solid(c, 10, 10)); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func TestRunLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := runLayout(&buf, 300, 9); err != nil {
		t.Fatalf("runLayout returned error: %v", err)
	}

	var doc layoutDoc
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if doc.CellSize != 100 || len(doc.Cells) != 9 {
		t.Fatalf("unexpected layout %+v", doc)
	}
	if doc.Cells[4].X != 100 || doc.Cells[4].Y != 100 {
		t.Fatalf("expected centre cell at (100,100), got %+v", doc.Cells[4])
	}

	if err := runLayout(&buf, 0, 3); err == nil {
		t.Fatalf("expected error for non-positive size")
	}
}

func TestRunCompose(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writePNG(t, dir, "a.png", color.RGBA{R: 255, A: 255}),
		writePNG(t, dir, "b.png", color.RGBA{G: 255, A: 255}),
	}
	out := filepath.Join(dir, "out.png")

	err := runCompose(zaptest.NewLogger(t), composeArgs{inputs: inputs, output: out, size: 64})
	if err != nil {
		t.Fatalf("runCompose returned error: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 64) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if _, g, _, _ := img.At(48, 32).RGBA(); g>>8 < 250 {
		t.Fatalf("expected green on the right, got %v", img.At(48, 32))
	}
}

func TestRunComposeMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := runCompose(zaptest.NewLogger(t), composeArgs{
		inputs: []string{filepath.Join(dir, "missing.png")},
		output: filepath.Join(dir, "out.png"),
		size:   64,
	})
	if err == nil || !strings.Contains(err.Error(), "missing.png") {
		t.Fatalf("expected error naming the missing file, got %v", err)
	}
}

func TestRunComposeRejectsCorruptInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(path, []byte("nope"), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	err := runCompose(zaptest.NewLogger(t), composeArgs{inputs: []string{path}, output: filepath.Join(dir, "out.png"), size: 64})
	if !errors.Is(err, imaging.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRunGrow(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, "src.png", color.RGBA{R: 255, A: 255})
	out := filepath.Join(dir, "grown.png")

	err := runGrow(zaptest.NewLogger(t), growArgs{input: input, output: out, width: 16, height: 20})
	if err != nil {
		t.Fatalf("runGrow returned error: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 16, 20) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if r, _, _, a := img.At(0, 19).RGBA(); r>>8 != 255 || a>>8 != 255 {
		t.Fatalf("expected source in the bottom-left corner, got %v", img.At(0, 19))
	}
	if _, _, _, a := img.At(15, 0).RGBA(); a != 0 {
		t.Fatalf("expected transparent padding, got %v", img.At(15, 0))
	}
}

func TestRunGrowRejectsShrink(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, "src.png", color.Black)

	err := runGrow(zaptest.NewLogger(t), growArgs{input: input, output: filepath.Join(dir, "out.png"), width: 5, height: 20})
	if !errors.Is(err, imaging.ErrShrink) {
		t.Fatalf("expected ErrShrink, got %v", err)
	}
}
