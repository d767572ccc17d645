package ai

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fable-lab/contract"
	"fable-lab/infrastructure/storage"
)

// AllTalkNarrator synthesizes narration through an alltalk_tts server and
// caches the audio bytes by content hash. The same narrative text always
// maps to the same cache key, so repeated turns cost nothing.
type AllTalkNarrator struct {
	client  *http.Client
	baseURL string
	voice   string
	audio   storage.IAudioRepository
	logger  *slog.Logger
}

func NewAllTalkNarrator(baseURL, voice string, audio storage.IAudioRepository, logger *slog.Logger) *AllTalkNarrator {
	return &AllTalkNarrator{
		client:  &http.Client{Timeout: 2 * time.Minute},
		baseURL: strings.TrimRight(baseURL, "/"),
		voice:   voice,
		audio:   audio,
		logger:  logger,
	}
}

type ttsResponse struct {
	Status         string `json:"status"`
	OutputCacheURL string `json:"output_cache_url"`
}

// Synthesize returns the cache key for the given text, generating and
// storing the audio on a cache miss.
func (n *AllTalkNarrator) Synthesize(ctx context.Context, text string) (*contract.Narration, error) {
	hash := HashText(text)

	if _, err := n.audio.GetAudio(hash); err == nil {
		n.logger.Debug("Served cached TTS", "hash", hash)
		return &contract.Narration{CacheKey: hash}, nil
	}

	form := url.Values{}
	form.Set("text_input", text)
	form.Set("character_voice_gen", n.voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/tts-generate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tts server: %w", err)
	}
	defer resp.Body.Close()

	var result ttsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tts response: %w", err)
	}
	if result.Status != "generate-success" {
		return nil, fmt.Errorf("tts generation failed with status %q", result.Status)
	}

	audio, err := n.fetchAudio(ctx, result.OutputCacheURL)
	if err != nil {
		return nil, err
	}
	if err := n.audio.StoreAudio(hash, audio); err != nil {
		return nil, fmt.Errorf("store audio %s: %w", hash, err)
	}
	return &contract.Narration{CacheKey: hash}, nil
}

func (n *AllTalkNarrator) fetchAudio(ctx context.Context, cacheURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+cacheURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build audio request: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch audio status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// HashText derives the stable cache key for a block of narrative text.
func HashText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
