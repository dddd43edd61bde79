package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/protocol"
	"github.com/palemoky/emoguchi/internal/solo"
)

const (
	maxSoloAudioBytes = 10 << 20
	// multipart 边界和其他字段留出的余量
	soloFormOverhead = 1 << 20
)

// handleSoloDialogue 单人模式：随机目标情绪和台词
func (a *API) handleSoloDialogue(c *gin.Context) {
	c.JSON(http.StatusOK, a.solo.Dialogue(c.Request.Context()))
}

// handleSoloPredict 单人模式：上传录音（multipart 字段 file）和 target_emotion，返回判定结果
func (a *API) handleSoloPredict(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSoloAudioBytes+soloFormOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		if isTooLarge(err) {
			abortTooLarge(c)
			return
		}
		a.abortWithError(c, apperrors.InvalidInput("Invalid multipart form"))
		return
	}

	target, err := strconv.Atoi(firstValue(form.Value["target_emotion"]))
	if err != nil || !solo.ValidEmotion(target) {
		a.abortWithError(c, apperrors.InvalidInput("target_emotion must be between 0 and %d", len(solo.Emotions)-1))
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		a.abortWithError(c, apperrors.InvalidInput("No audio file provided"))
		return
	}
	fh := files[0]
	if fh.Filename == "" || fh.Size == 0 {
		a.abortWithError(c, apperrors.InvalidInput("No audio file provided"))
		return
	}
	if fh.Size > maxSoloAudioBytes {
		abortTooLarge(c)
		return
	}

	f, err := fh.Open()
	if err != nil {
		a.abortWithError(c, apperrors.Internal("open upload", err))
		return
	}
	defer func() { _ = f.Close() }()
	audio, err := io.ReadAll(f)
	if err != nil {
		a.abortWithError(c, apperrors.Internal("read upload", err))
		return
	}

	res, err := a.solo.Predict(c.Request.Context(), audio, target)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func abortTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{
		Code:    protocol.ErrCodeTooLarge,
		Message: "Audio file must be 10MB or smaller",
	})
}
