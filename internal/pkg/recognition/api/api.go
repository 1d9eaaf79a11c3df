package api

import "encoding/json"

// RecognitionConfig is the wire config for speech recognition requests
type RecognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz,omitempty"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	Model                      string `json:"model"`
	UseEnhanced                bool   `json:"useEnhanced"`
	AudioChannelCount          int    `json:"audioChannelCount"`
}

// RecognitionAudio points to the stored audio object
type RecognitionAudio struct {
	URI string `json:"uri"`
}

// RecognizeRequest is the body for both sync and long running recognition
type RecognizeRequest struct {
	Config RecognitionConfig `json:"config"`
	Audio  RecognitionAudio  `json:"audio"`
}

// Operation is a long running job status
type Operation struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Metadata *OperationMetadata `json:"metadata,omitempty"`
	Error    *Status            `json:"error,omitempty"`
	Response *RecognizeResponse `json:"response,omitempty"`
}

// OperationMetadata keeps job progress info
type OperationMetadata struct {
	ProgressPercent int    `json:"progressPercent,omitempty"`
	StartTime       string `json:"startTime,omitempty"`
	LastUpdateTime  string `json:"lastUpdateTime,omitempty"`
}

// Status is the remote error object
type Status struct {
	Code    int               `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Details []json.RawMessage `json:"details,omitempty"`
}

// RecognizeResponse keeps recognition results
type RecognizeResponse struct {
	Results []Result `json:"results,omitempty"`
}

// Result is one consecutive audio part
type Result struct {
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// Alternative is a recognition hypothesis, the first one is the most likely
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence,omitempty"`
}

// TopTranscripts returns the first alternative of every result, in order
func (r *RecognizeResponse) TopTranscripts() []string {
	res := []string{}
	if r == nil {
		return res
	}
	for _, rs := range r.Results {
		if len(rs.Alternatives) > 0 {
			res = append(res, rs.Alternatives[0].Transcript)
		}
	}
	return res
}
