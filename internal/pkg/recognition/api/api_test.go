package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopTranscripts(t *testing.T) {
	var op Operation
	require.Nil(t, json.Unmarshal([]byte(`{"name":"1","done":true,"response":{"results":[
		{"alternatives":[{"transcript":"a"},{"transcript":"x"}]},
		{"alternatives":[]},
		{"alternatives":[{"transcript":"b"}]}]}}`), &op))
	assert.Equal(t, []string{"a", "b"}, op.Response.TopTranscripts())
}

func TestTopTranscripts_Nil(t *testing.T) {
	var r *RecognizeResponse
	assert.Equal(t, []string{}, r.TopTranscripts())
}

func TestRecognitionConfig_NoRate(t *testing.T) {
	b, err := json.Marshal(RecognitionConfig{Encoding: "MP3"})
	require.Nil(t, err)
	assert.NotContains(t, string(b), "sampleRateHertz")
}
