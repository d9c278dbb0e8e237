package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/icon-grid/internal/grid"
	"github.com/eugenenazirov/icon-grid/internal/imaging"
	"github.com/eugenenazirov/icon-grid/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultCanvasSize     = 512
	defaultMinCanvasSize  = 16
	defaultMaxCanvasSize  = 4096
	defaultMaxUploadBytes = 8 << 20
	defaultMaxImagePixels = 4096 * 4096
	maxComposeBodyBytes   = 64 << 10
)

// Limits bounds the sizes accepted by the handlers.
type Limits struct {
	DefaultCanvasSize int
	MinCanvasSize     int
	MaxCanvasSize     int
	MaxUploadBytes    int64
	// MaxImagePixels caps width×height of decoded uploads.
	MaxImagePixels int
}

// Handler wires the icon library and composer into HTTP handlers.
type Handler struct {
	storage storage.Storage
	limits  Limits
	logger  *zap.Logger

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLimits overrides canvas and upload bounds. Zero fields keep their defaults.
func WithLimits(l Limits) HandlerOption {
	return func(h *Handler) {
		if l.DefaultCanvasSize > 0 {
			h.limits.DefaultCanvasSize = l.DefaultCanvasSize
		}
		if l.MinCanvasSize > 0 {
			h.limits.MinCanvasSize = l.MinCanvasSize
		}
		if l.MaxCanvasSize > 0 {
			h.limits.MaxCanvasSize = l.MaxCanvasSize
		}
		if l.MaxUploadBytes > 0 {
			h.limits.MaxUploadBytes = l.MaxUploadBytes
		}
		if l.MaxImagePixels > 0 {
			h.limits.MaxImagePixels = l.MaxImagePixels
		}
	}
}

// WithLogger attaches a logger for handler-level diagnostics.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		limits: Limits{
			DefaultCanvasSize: defaultCanvasSize,
			MinCanvasSize:     defaultMinCanvasSize,
			MaxCanvasSize:     defaultMaxCanvasSize,
			MaxUploadBytes:    defaultMaxUploadBytes,
			MaxImagePixels:    defaultMaxImagePixels,
		},
		logger: zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	size, err := h.canvasSize(query.Get("size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid size", err.Error())
		return
	}

	count, err := strconv.Atoi(strings.TrimSpace(query.Get("count")))
	if err != nil || count < 0 {
		writeError(w, http.StatusBadRequest, "Invalid count", "count must be a non-negative integer")
		return
	}

	packer := grid.New(size, count)
	cells := make([]layoutCell, 0, packer.Len())
	for i := 0; i < packer.Len(); i++ {
		r := packer.Rect(i)
		ir := packer.ImageRect(i)
		cells = append(cells, layoutCell{
			Index:  i,
			X:      r.Min.X,
			Y:      r.Min.Y,
			ImageX: ir.Min.X,
			ImageY: ir.Min.Y,
			Size:   r.Dx(),
		})
	}

	resp := layoutResponse{
		Size:     size,
		Count:    count,
		Placed:   packer.Len(),
		Dropped:  count - packer.Len(),
		CellSize: packer.CellSize(),
		Cells:    cells,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUploadIcon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxUploadBytes)

	var (
		src  io.Reader = r.Body
		name           = r.URL.Query().Get("name")
		crop           = r.URL.Query().Get("crop")
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.limits.MaxUploadBytes); err != nil {
			writeUploadError(w, err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", "multipart upload requires a file field")
			return
		}
		defer file.Close()

		src = file
		if formName := r.FormValue("name"); formName != "" {
			name = formName
		} else if name == "" {
			name = header.Filename
		}
		if formCrop := r.FormValue("crop"); formCrop != "" {
			crop = formCrop
		}
	}

	var cropRect image.Rectangle
	if crop != "" {
		rect, err := parseCropRect(crop)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid crop", err.Error())
			return
		}
		cropRect = rect
	}

	img, format, err := imaging.DecodeLimited(src, h.limits.MaxImagePixels)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	if crop != "" {
		cropped, err := imaging.Crop(img, cropRect.Add(img.Bounds().Min))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid crop", err.Error(),
				fmt.Sprintf("The image is %dx%d", img.Bounds().Dx(), img.Bounds().Dy()))
			return
		}
		img = cropped
	}

	icon, err := h.storage.PutIcon(name, format, img)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidIcon):
			writeError(w, http.StatusBadRequest, "Invalid icon", err.Error())
		case errors.Is(err, storage.ErrCapacity):
			writeError(w, http.StatusInsufficientStorage, "Library full", err.Error(), "Delete unused icons before uploading more")
		default:
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, icon)
}

func (h *Handler) handleListIcons(w http.ResponseWriter, r *http.Request) {
	_ = r
	icons, err := h.storage.ListIcons()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iconsResponse{Icons: icons, Count: len(icons)})
}

func (h *Handler) handleGetIcon(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, img, err := h.storage.GetIcon(id)
	if err != nil {
		writeStorageError(w, id, err)
		return
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := h.canvasSize(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid size", err.Error())
			return
		}
		if img, err = imaging.ChangeResolution(img, size, size); err != nil {
			writeInternalError(w, err)
			return
		}
	}
	writePNG(w, img, nil)
}

func (h *Handler) handleDeleteIcon(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.storage.DeleteIcon(id); err != nil {
		writeStorageError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCompose(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxComposeBodyBytes)

	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large", fmt.Sprintf("compose requests are limited to %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	size := req.Size
	if size == 0 {
		size = h.limits.DefaultCanvasSize
	}
	if err := h.checkCanvasSize(size); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid size", err.Error())
		return
	}

	opts := []imaging.ComposeOption{imaging.WithSquareCrop(req.SquareCrop)}
	if req.Outline {
		opts = append(opts, imaging.WithOutline(nil, 0))
	}
	if req.Background != "" {
		bg, err := parseHexColor(req.Background)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid background", err.Error())
			return
		}
		opts = append(opts, imaging.WithBackground(bg))
	}

	icons := make([]image.Image, 0, len(req.IconIDs))
	for _, id := range req.IconIDs {
		_, img, err := h.storage.GetIcon(id)
		if err != nil {
			writeStorageError(w, id, err)
			return
		}
		icons = append(icons, img)
	}

	if len(icons) == 0 {
		h.logger.Warn("compose requested without icons, returning placeholder",
			zap.String("request_id", requestIDFromContext(r.Context())))
	}

	result, err := imaging.ComposeGroupIcon(icons, size, opts...)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	headers := map[string]string{
		"X-Cell-Size": strconv.Itoa(result.CellSize),
	}
	if result.Dropped > 0 {
		headers["X-Dropped-Icons"] = strconv.Itoa(result.Dropped)
	}
	writePNG(w, result.Image, headers)
}

func (h *Handler) canvasSize(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.limits.DefaultCanvasSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("size must be an integer")
	}
	return size, h.checkCanvasSize(size)
}

func (h *Handler) checkCanvasSize(size int) error {
	if size < h.limits.MinCanvasSize || size > h.limits.MaxCanvasSize {
		return fmt.Errorf("size must be between %d and %d", h.limits.MinCanvasSize, h.limits.MaxCanvasSize)
	}
	return nil
}

// parseCropRect reads "x,y,w,h" relative to the image's top-left corner.
func parseCropRect(raw string) (image.Rectangle, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("crop must look like x,y,width,height, got %q", raw)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("crop must look like x,y,width,height, got %q", raw)
		}
		v[i] = n
	}
	if v[0] < 0 || v[1] < 0 || v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("crop origin must be non-negative and its size positive, got %q", raw)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// parseHexColor accepts #rgb, #rrggbb and #rrggbbaa.
func parseHexColor(raw string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("background must look like #rrggbb, got %q", raw)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("background must look like #rrggbb, got %q", raw)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type composeRequest struct {
	IconIDs    []string `json:"iconIds"`
	Size       int      `json:"size"`
	Outline    bool     `json:"outline"`
	SquareCrop bool     `json:"squareCrop"`
	Background string   `json:"background"`
}

type layoutCell struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	ImageX int `json:"imageX"`
	ImageY int `json:"imageY"`
	Size   int `json:"size"`
}

type layoutResponse struct {
	Size     int          `json:"size"`
	Count    int          `json:"count"`
	Placed   int          `json:"placed"`
	Dropped  int          `json:"dropped"`
	CellSize int          `json:"cellSize"`
	Cells    []layoutCell `json:"cells"`
}

type iconsResponse struct {
	Icons []storage.Icon `json:"icons"`
	Count int            `json:"count"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writePNG(w http.ResponseWriter, img image.Image, headers map[string]string) {
	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, img); err != nil {
		writeInternalError(w, err)
		return
	}
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", fmt.Sprintf("uploads are limited to %d bytes", tooLarge.Limit))
	case errors.Is(err, imaging.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large", err.Error(), "Downscale the image before uploading")
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "Invalid image", err.Error(), "Upload a PNG, JPEG, GIF, BMP, TIFF or WebP file")
	default:
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	}
}

func writeStorageError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Icon not found", fmt.Sprintf("no icon with id %q", id))
		return
	}
	writeInternalError(w, err)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
