package response

import (
	"Parley/internal/api/dto"
	"Parley/internal/service"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	code, msg := Resolve(fmt.Errorf("%w: insert: boom", service.ErrSendFailed))
	assert.Equal(t, service.ServiceUnavailable, code)
	assert.Contains(t, msg, service.ErrSendFailed.Error())

	code, _ = Resolve(service.ErrUserNotFound)
	assert.Equal(t, service.NotFound, code)

	code, msg = Resolve(errors.New("internal detail"))
	assert.Equal(t, InternalServerError, code)
	assert.Equal(t, service.UnExpectedError.Error(), msg)

	type req struct {
		Name string `validate:"required"`
	}
	code, _ = Resolve(validator.New().Struct(req{}))
	assert.Equal(t, BadRequest, code)

	var v map[string]any
	code, _ = Resolve(json.Unmarshal([]byte(`{`), &v))
	assert.Equal(t, BadRequest, code)
}

func TestFrames(t *testing.T) {
	ack := Ack("r1", map[string]string{"chatId": "c1"})
	assert.Equal(t, dto.FrameAck, ack.Type)
	assert.Equal(t, "r1", ack.RequestID)

	f := ErrorFrame("r2", service.ErrConversation)
	assert.Equal(t, dto.FrameError, f.Type)
	assert.Equal(t, service.BadRequest, f.Code)
}
