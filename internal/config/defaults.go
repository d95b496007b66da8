package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadSize == 0 {
		cfg.Server.MaxUploadSize = 10 << 20
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kotae/data/db/kotae.db"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "/usr/local/var/kotae/data/uploads"
	}
	if cfg.Storage.VectorStorePath == "" {
		cfg.Storage.VectorStorePath = "/usr/local/var/kotae/data/vector_stores"
	}
	// Overlap only defaults alongside size so that an explicit size with no overlap stays at zero.
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
		if cfg.Chunking.ChunkOverlap == 0 {
			cfg.Chunking.ChunkOverlap = 200
		}
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "remote"
	}
	if cfg.Embedding.MaxInputChars == 0 {
		cfg.Embedding.MaxInputChars = 512
	}
	applyRemoteEmbeddingDefaults(&cfg.Embedding.Remote)
	if cfg.Embedding.Local.ModelPath == "" {
		cfg.Embedding.Local.ModelPath = "/usr/local/var/kotae/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Local.Dimensions == 0 {
		cfg.Embedding.Local.Dimensions = 384
	}
	if cfg.Embedding.Local.MaxTokens == 0 {
		cfg.Embedding.Local.MaxTokens = 256
	}
	if cfg.Embedding.Local.CacheSize == 0 {
		cfg.Embedding.Local.CacheSize = 10000
	}
	if cfg.Embedding.Mock.Dimensions == 0 {
		cfg.Embedding.Mock.Dimensions = 384
	}

	applyLLMDefaults(&cfg.LLM)

	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 4
	}
	if cfg.RAG.TitleTimeoutSeconds == 0 {
		cfg.RAG.TitleTimeoutSeconds = 15
	}
}

func applyRemoteEmbeddingDefaults(r *RemoteEmbeddingConfig) {
	if r.Format == "" {
		r.Format = "huggingface"
	}
	if r.BaseURL == "" {
		switch r.Format {
		case "openai":
			r.BaseURL = "https://api.openai.com/v1"
		default:
			r.BaseURL = "https://api-inference.huggingface.co/models"
		}
	}
	if r.Model == "" {
		switch r.Format {
		case "openai":
			r.Model = "text-embedding-3-small"
		default:
			r.Model = "sentence-transformers/all-MiniLM-L6-v2"
		}
	}
	if r.APIKeyEnv == "" {
		switch r.Format {
		case "openai":
			r.APIKeyEnv = "OPENAI_API_KEY"
		default:
			r.APIKeyEnv = "HUGGINGFACE_API_KEY"
		}
	}
	if r.TimeoutSeconds == 0 {
		r.TimeoutSeconds = 30
	}
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.BackoffMillis == 0 {
		r.BackoffMillis = 1000
	}
	if r.IntervalMillis == 0 {
		r.IntervalMillis = 200
	}
	// Negative disables the query cache.
	if r.CacheSize == 0 {
		r.CacheSize = 1000
	}
}

var defaultChatModels = map[string]string{
	"openai":      "gpt-3.5-turbo",
	"together":    "mistralai/Mixtral-8x7B-Instruct-v0.1",
	"groq":        "llama-3.1-8b-instant",
	"gemini":      "gemini-2.5-flash",
	"huggingface": "mistralai/Mistral-7B-Instruct-v0.2",
}

var defaultChatBaseURLs = map[string]string{
	"together":    "https://api.together.xyz/v1",
	"groq":        "https://api.groq.com/openai/v1",
	"huggingface": "https://api-inference.huggingface.co/models",
}

var defaultChatKeyEnvs = map[string]string{
	"openai":      "OPENAI_API_KEY",
	"together":    "TOGETHER_API_KEY",
	"groq":        "GROQ_API_KEY",
	"gemini":      "GEMINI_API_KEY",
	"huggingface": "HUGGINGFACE_API_KEY",
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Provider == "" {
		l.Provider = "openai"
	}
	if l.Model == "" {
		l.Model = defaultChatModels[l.Provider]
	}
	if l.BaseURL == "" {
		l.BaseURL = defaultChatBaseURLs[l.Provider]
	}
	if l.APIKeyEnv == "" {
		l.APIKeyEnv = defaultChatKeyEnvs[l.Provider]
	}
	if l.Temperature == 0 {
		l.Temperature = 0.7
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 512
	}
	if l.TimeoutSeconds == 0 {
		l.TimeoutSeconds = 60
	}
}
