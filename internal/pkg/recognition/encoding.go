package recognition

import (
	"strings"

	"github.com/airenas/medscribe/internal/pkg/recognition/api"
)

// Encoding is a speech API audio encoding name
type Encoding string

const (
	// WebmOpus - webm container with opus
	WebmOpus Encoding = "WEBM_OPUS"
	// MP3 encoding
	MP3 Encoding = "MP3"
	// Linear16 - uncompressed 16 bit PCM
	Linear16 Encoding = "LINEAR16"
	// FLAC encoding
	FLAC Encoding = "FLAC"
	// OggOpus - ogg container with opus, used when nothing else matches
	OggOpus Encoding = "OGG_OPUS"
)

const (
	languageCode = "en-US"
	model        = "medical_dictation"
	channelCount = 1
)

type encodingRule struct {
	contains   []string
	encoding   Encoding
	sampleRate int
}

// first match wins
var encodingTable = []encodingRule{
	{contains: []string{"webm", "opus"}, encoding: WebmOpus, sampleRate: 48000},
	{contains: []string{"mp3"}, encoding: MP3},
	{contains: []string{"wav", "x-wav"}, encoding: Linear16, sampleRate: 16000},
	{contains: []string{"flac"}, encoding: FLAC},
	{contains: []string{"m4a", "mp4a"}, encoding: Linear16, sampleRate: 16000},
}

// DeriveEncoding maps content type to encoding and sample rate, rate 0 means
// the service detects it
func DeriveEncoding(contentType string) (Encoding, int) {
	ct := strings.ToLower(contentType)
	for _, r := range encodingTable {
		for _, s := range r.contains {
			if strings.Contains(ct, s) {
				return r.encoding, r.sampleRate
			}
		}
	}
	return OggOpus, 16000
}

// NewConfig builds recognition config for the content type. Audio is assumed to be mono.
func NewConfig(contentType string) api.RecognitionConfig {
	enc, rate := DeriveEncoding(contentType)
	return newConfig(enc, rate)
}

// ChunkConfig is the fixed config for short real-time chunks recorded by the browser
func ChunkConfig() api.RecognitionConfig {
	return newConfig(WebmOpus, 48000)
}

func newConfig(enc Encoding, rate int) api.RecognitionConfig {
	return api.RecognitionConfig{
		Encoding:                   string(enc),
		SampleRateHertz:            rate,
		LanguageCode:               languageCode,
		EnableAutomaticPunctuation: true,
		Model:                      model,
		UseEnhanced:                true,
		AudioChannelCount:          channelCount,
	}
}
