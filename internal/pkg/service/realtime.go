package service

import (
	"context"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WsConn is the websocket connection used for real-time chunks
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	WriteJSON(v interface{}) error
}

type chunk struct {
	data []byte
}

const realtimeIdleTimeout = time.Minute * 5

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func realtimeHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		contentType := c.QueryParam(prmContentType)
		if contentType == "" {
			contentType = defaultChunkContentType
		}
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		return handleRealtime(c.Request().Context(), ws, data.Transcriber, contentType, realtimeIdleTimeout)
	}
}

// handleRealtime transcribes every binary message and replies with the transcript until the
// connection is closed or idle for longer than timeout
func handleRealtime(ctx context.Context, conn WsConn, tr Transcriber, contentType string, timeout time.Duration) error {
	defer conn.Close()
	readCh := make(chan chunk)
	go func() {
		defer close(readCh)
		for {
			mt, message, err := conn.ReadMessage()
			if err != nil {
				goapp.Log.Debug().Err(err).Msg("read ended")
				return
			}
			if mt != websocket.BinaryMessage || len(message) == 0 {
				continue
			}
			select {
			case readCh <- chunk{data: message}:
			case <-ctx.Done():
				return
			}
		}
	}()

	ta := time.After(timeout)
	for {
		select {
		case <-ta:
			goapp.Log.Debug().Msg("conn timeouted")
			return nil
		case <-ctx.Done():
			return nil
		case ch, ok := <-readCh:
			if !ok {
				goapp.Log.Debug().Msg("conn read closed")
				return nil
			}
			res := tr.TranscribeChunk(ctx, ch.data, contentType)
			if err := conn.WriteJSON(res); err != nil {
				goapp.Log.Warn().Err(err).Msg("can't write")
				return nil
			}
			ta = time.After(timeout)
		}
	}
}
