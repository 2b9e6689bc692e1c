package drapto

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"
)

// Encoder transcodes a single media file into outputDir and returns the path
// of the produced file.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputDir string) (string, error)
}

// EncoderFunc adapts a plain function to the Encoder interface.
type EncoderFunc func(ctx context.Context, inputPath, outputDir string) (string, error)

// Encode calls f.
func (f EncoderFunc) Encode(ctx context.Context, inputPath, outputDir string) (string, error) {
	return f(ctx, inputPath, outputDir)
}

// Library implements Encoder using the Drapto Go library directly.
type Library struct{}

// NewLibrary constructs a Library client.
func NewLibrary() *Library {
	return &Library{}
}

// Encode encodes a video file using the Drapto library.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", errors.New("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", errors.New("output directory required")
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", err
	}

	var rep draptolib.Reporter
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", err
	}

	return OutputPath(inputPath, outputDir), nil
}

// OutputPath mirrors Drapto's naming: the input stem with an .mkv extension
// inside outputDir.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}

var _ Encoder = (*Library)(nil)
