package openai

// Config contains settings for the OpenAI-compatible chat endpoint.
// Defaults target the DashScope compatible-mode API.
//   - APIKey: Maps to option.WithAPIKey()
//   - BaseURL: Maps to option.WithBaseURL()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//   - MaxRetries: Maps to option.WithMaxRetries()
type Config struct {
	APIKey      string  `env:"OPENAI_API_KEY"`
	BaseURL     string  `env:"OPENAI_BASE_URL"    envDefault:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
	Model       string  `env:"OPENAI_MODEL"       envDefault:"qwen-plus"`
	Temperature float64 `env:"OPENAI_TEMPERATURE" envDefault:"0.3"`
	Timeout     int     `env:"OPENAI_TIMEOUT"     envDefault:"60"`
	MaxRetries  int     `env:"OPENAI_MAX_RETRIES" envDefault:"2"`
}
