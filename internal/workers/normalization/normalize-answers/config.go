// internal/workers/normalization/normalize-answers/config.go
package normalizeanswers

type Config struct {
	SourceLanguage string
	TargetLanguage string
}

func LoadConfig() *Config {
	return &Config{
		SourceLanguage: "pt",
		TargetLanguage: "en",
	}
}
