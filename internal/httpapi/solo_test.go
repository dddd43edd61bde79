package httpapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/game/emotion"
	"github.com/palemoky/emoguchi/internal/prompt"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/solo"
)

type probsClassifier []float64

func (p probsClassifier) Classify(context.Context, []byte) ([]float64, error) {
	return p, nil
}

func newSoloRouter(probs ...float64) *gin.Engine {
	gen := prompt.GeneratorFunc(func(context.Context, emotion.Mode) (string, string, error) {
		return "ただいま", "joy", nil
	})
	return NewRouter(Options{}, Deps{Solo: solo.NewService(gen, probsClassifier(probs))})
}

func uploadRequest(t *testing.T, target string, audio []byte, filename string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if target != "" {
		require.NoError(t, mw.WriteField("target_emotion", target))
	}
	if audio != nil {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/solo/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSoloDialogue(t *testing.T) {
	router := newSoloRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/solo/dialogue", nil))
	require.Equal(t, http.StatusOK, w.Code)

	d := decode[solo.Dialogue](t, w)
	assert.True(t, solo.ValidEmotion(d.EmotionID))
	assert.Equal(t, solo.Emotions[d.EmotionID].Label, d.EmotionName)
	assert.Equal(t, "ただいま", d.Dialogue)
}

func TestSoloPredict(t *testing.T) {
	router := newSoloRouter(0.1, 0.1, 0.2, 0.6)
	audio := []byte("RIFF....WAVE")

	t.Run("scores the recording", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "3", audio, "voice.wav"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		res := decode[solo.Prediction](t, w)
		assert.True(t, res.IsCorrect)
		assert.Equal(t, 3, res.PredictedClass)
		assert.Equal(t, 100, res.Score)
		assert.Equal(t, "悲しみ", res.Emotion)
	})

	t.Run("miss", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "2", audio, "voice.wav"))
		require.Equal(t, http.StatusOK, w.Code)

		res := decode[solo.Prediction](t, w)
		assert.False(t, res.IsCorrect)
		assert.Equal(t, 20, res.Score)
		assert.NotEmpty(t, res.Message)
	})

	badRequests := []struct {
		name     string
		target   string
		audio    []byte
		filename string
	}{
		{"target out of range", "4", audio, "voice.wav"},
		{"target not a number", "joy", audio, "voice.wav"},
		{"missing target", "", audio, "voice.wav"},
		{"missing file", "1", nil, ""},
		{"empty file", "1", []byte{}, "voice.wav"},
	}
	for _, tt := range badRequests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(t, tt.target, tt.audio, tt.filename))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, protocol.ErrCodeBadRequest, decode[errorResponse](t, w).Code)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/solo/predict", bytes.NewBufferString("{}")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("file too large", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "1", make([]byte, maxSoloAudioBytes+1), "voice.wav"))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, protocol.ErrCodeTooLarge, decode[errorResponse](t, w).Code)
	})
}

func TestSoloRoutesOptional(t *testing.T) {
	router := NewRouter(Options{}, Deps{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/solo/dialogue", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
