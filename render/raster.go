package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	// Register decoders for every raster format the detector knows.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go.uber.org/zap"

	"github.com/tsawler/palimpsest/model"
)

// rasterRenderer treats a raster image as a one-page document.
type rasterRenderer struct {
	log *zap.Logger
}

func (rr *rasterRenderer) reader(doc *model.Document) (io.ReadCloser, error) {
	if doc.IsBuffer() {
		return io.NopCloser(bytes.NewReader(doc.Data)), nil
	}
	return os.Open(doc.Path)
}

func (rr *rasterRenderer) countPages(_ context.Context, doc *model.Document) int {
	r, err := rr.reader(doc)
	if err != nil {
		return 0
	}
	defer r.Close()

	if _, _, err := image.DecodeConfig(r); err != nil {
		rr.log.Debug("raster header decode failed",
			zap.String("document", doc.Name()),
			zap.Error(err))
		return 0
	}
	return 1
}

func (rr *rasterRenderer) renderPages(_ context.Context, doc *model.Document) ([]image.Image, error) {
	r, err := rr.reader(doc)
	if err != nil {
		return nil, fmt.Errorf("opening raster document: %w", err)
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding raster document: %w", err)
	}
	return []image.Image{img}, nil
}
