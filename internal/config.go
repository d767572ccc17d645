package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BufferSize      int           `env:"BUFFER_SIZE,required=true"`
	RoomQueueSize   int           `env:"ROOM_QUEUE_SIZE,required=true"`
	PersistRetries  int           `env:"PERSIST_RETRIES,default=2"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,required=true"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,required=true"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,required=true"`

	GenerationTimeout  time.Duration `env:"GENERATION_TIMEOUT,required=true"`
	GenerationAttempts int           `env:"GENERATION_ATTEMPTS,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	Host           string `env:"HOST,required=true"`
	Port           int    `env:"PORT,required=true"`

	OpenAIBaseURL   string `env:"OPENAI_BASE_URL,required=true"`
	OpenAIModel     string `env:"OPENAI_MODEL,required=true"`
	OpenAIFastURL   string `env:"OPENAI_FAST_BASE_URL,required=true"`
	OpenAIFastModel string `env:"OPENAI_FAST_MODEL,required=true"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY,required=true"`

	TTSBaseURL        *string `env:"TTS_BASE_URL"`
	TTSVoice          string  `env:"TTS_VOICE,default=female_01.wav"`
	AdminPasswordHash *string `env:"ADMIN_PASSWORD_HASH"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
