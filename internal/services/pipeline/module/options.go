package module

import (
	"time"

	"flexcode/internal/platform/config"
)

// Options controls extraction for the pipeline
type Options struct {
	Extractor   string // rules | hf
	HFAPIKey    string
	HFModelURL  string
	HFTimeout   time.Duration
	AliasesFile string
}

// FromConfig reads PIPELINE_EXTRACTOR plus the unprefixed HuggingFace and
// alias file keys. The hf extractor is chosen by default only when a key is set
func FromConfig(cfg config.Conf) Options {
	key := cfg.MayString("HUGGING_FACE_API_KEY", "")
	def := "rules"
	if key != "" {
		def = "hf"
	}
	return Options{
		Extractor:   cfg.Prefix("PIPELINE_").MayEnum("EXTRACTOR", def, "rules", "hf"),
		HFAPIKey:    key,
		HFModelURL:  cfg.MayString("HF_MODEL_URL", ""),
		HFTimeout:   cfg.MayDuration("HF_TIMEOUT", 10*time.Second),
		AliasesFile: cfg.MayString("PLATFORM_ALIASES_FILE", ""),
	}
}
