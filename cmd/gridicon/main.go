package main

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/icon-grid/internal/grid"
	"github.com/eugenenazirov/icon-grid/internal/imaging"
	"github.com/eugenenazirov/icon-grid/internal/logging"
)

type growArgs struct {
	input  string
	output string
	width  int
	height int
}

type composeArgs struct {
	inputs     []string
	output     string
	size       int
	outline    bool
	squareCrop bool
}

func main() {
	app := kingpin.New("gridicon", "Compose group icons and inspect grid layouts offline")
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").Default("info").String()

	layoutCmd := app.Command("layout", "Print the cell layout for a canvas size and item count")
	layoutSize := layoutCmd.Flag("size", "Canvas side length in pixels").Default("512").Int()
	layoutCount := layoutCmd.Arg("count", "Number of items").Required().Int()

	composeCmd := app.Command("compose", "Pack image files into a group icon PNG")
	var args composeArgs
	composeCmd.Flag("output", "Destination PNG file").Short('o').Required().StringVar(&args.output)
	composeCmd.Flag("size", "Canvas side length in pixels").Default("512").IntVar(&args.size)
	composeCmd.Flag("outline", "Stroke the border of every cell").BoolVar(&args.outline)
	composeCmd.Flag("square-crop", "Centre-crop inputs to squares before scaling").BoolVar(&args.squareCrop)
	composeCmd.Arg("inputs", "Source images, in placement order").StringsVar(&args.inputs)

	growCmd := app.Command("grow", "Pad an image onto a larger transparent canvas, anchored bottom-left")
	var grow growArgs
	growCmd.Flag("output", "Destination PNG file").Short('o').Required().StringVar(&grow.output)
	growCmd.Flag("width", "Canvas width in pixels").Required().IntVar(&grow.width)
	growCmd.Flag("height", "Canvas height in pixels").Required().IntVar(&grow.height)
	growCmd.Arg("input", "Source image").Required().StringVar(&grow.input)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := logging.New(*logLevel)
	if err != nil {
		app.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case layoutCmd.FullCommand():
		err = runLayout(os.Stdout, *layoutSize, *layoutCount)
	case composeCmd.FullCommand():
		err = runCompose(logger, args)
	case growCmd.FullCommand():
		err = runGrow(logger, grow)
	}
	if err != nil {
		logger.Fatal("command failed", zap.String("command", command), zap.Error(err))
	}
}

type layoutDoc struct {
	Size     int         `yaml:"size"`
	CellSize int         `yaml:"cell_size"`
	Cells    []layoutRow `yaml:"cells"`
}

type layoutRow struct {
	Index int `yaml:"index"`
	X     int `yaml:"x"`
	Y     int `yaml:"y"`
	Size  int `yaml:"size"`
}

func runLayout(w io.Writer, size, count int) error {
	if size <= 0 {
		return fmt.Errorf("size must be positive, got %d", size)
	}

	packer := grid.New(size, count)
	doc := layoutDoc{Size: size, CellSize: packer.CellSize()}
	for i, r := range packer.Rects() {
		doc.Cells = append(doc.Cells, layoutRow{Index: i, X: r.Min.X, Y: r.Min.Y, Size: r.Dx()})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return enc.Close()
}

func runCompose(logger *zap.Logger, args composeArgs) error {
	icons := make([]image.Image, 0, len(args.inputs))
	for _, path := range args.inputs {
		img, err := decodeFile(path)
		if err != nil {
			return err
		}
		icons = append(icons, img)
	}

	opts := []imaging.ComposeOption{imaging.WithSquareCrop(args.squareCrop)}
	if args.outline {
		opts = append(opts, imaging.WithOutline(nil, 0))
	}

	result, err := imaging.ComposeGroupIcon(icons, args.size, opts...)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	if len(icons) == 0 {
		logger.Warn("no inputs given, wrote placeholder")
	}
	if result.Dropped > 0 {
		logger.Warn("inputs beyond the grid capacity were skipped",
			zap.Int("dropped", result.Dropped),
			zap.Strings("skipped", args.inputs[grid.MaxItems:]),
		)
	}

	if err := writePNGFile(args.output, result.Image); err != nil {
		return err
	}

	logger.Info("group icon written",
		zap.String("output", args.output),
		zap.Int("placed", result.Placed),
		zap.Int("cell_size", result.CellSize),
	)
	return nil
}

func runGrow(logger *zap.Logger, args growArgs) error {
	src, err := decodeFile(args.input)
	if err != nil {
		return err
	}

	grown, err := imaging.Grow(src, args.width, args.height)
	if err != nil {
		return fmt.Errorf("grow %s to %dx%d: %w", args.input, args.width, args.height, err)
	}
	if err := writePNGFile(args.output, grown); err != nil {
		return err
	}

	logger.Info("image padded",
		zap.String("output", args.output),
		zap.Int("width", args.width),
		zap.Int("height", args.height),
	)
	return nil
}

func writePNGFile(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := imaging.EncodePNG(out, img); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
