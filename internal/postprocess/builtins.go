package postprocess

import (
	"reelforge/internal/config"
	"reelforge/internal/docstore"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/payload"
	"reelforge/internal/services/drapto"
)

// Builtins returns the built-in processors enabled by cfg in registration
// order. A nil encoder falls back to the Drapto library.
func Builtins(cfg *config.Config, docs *docstore.Store, payloads *payload.Store, encoder drapto.Encoder) []Processor {
	var processors []Processor
	if cfg.PostProcess.Probe {
		processors = append(processors, &Probe{
			Inspector: ffprobe.Binary(cfg.FFprobeBinary()),
			Payloads:  payloads,
		})
	}
	if cfg.PostProcess.AV1 {
		if encoder == nil {
			encoder = drapto.NewLibrary()
		}
		processors = append(processors, &AV1{
			Encoder:  encoder,
			Payloads: payloads,
			WorkDir:  cfg.Paths.TempDir,
		})
	}
	processors = append(processors, Poster{}, &PreviewRedirect{Docs: docs})
	return processors
}
