package transport

import (
	"context"
	"io"

	"github.com/gorilla/websocket"
)

// wsStream adapts a websocket connection to a byte stream.  Binary
// messages are concatenated; a partially consumed message is retained
// for the next read.
type wsStream struct {
	ws     *websocket.Conn
	unread []byte
}

// WSCallbacks exposes a websocket connection as an external callback
// pair, so TLS can ride a websocket-carried byte stream.  The websocket
// stays owned by the caller.
func WSCallbacks(ws *websocket.Conn) (ReadFunc, WriteFunc, interface{}) {
	read := func(userCtx interface{}, buf []byte) (int, error) {
		return userCtx.(*wsStream).readBytes(buf)
	}
	write := func(userCtx interface{}, buf []byte) (int, error) {
		s := userCtx.(*wsStream)
		if err := s.ws.WriteMessage(websocket.BinaryMessage, buf); err != nil {
			return 0, err
		}
		return len(buf), nil
	}
	return read, write, &wsStream{ws: ws}
}

func (s *wsStream) readBytes(buf []byte) (int, error) {
	for len(s.unread) == 0 {
		kind, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return 0, io.EOF
			}
			return 0, err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		s.unread = data
	}
	n := copy(buf, s.unread)
	s.unread = s.unread[n:]
	return n, nil
}

// DialWS opens a websocket to url for use with WSCallbacks.
func DialWS(ctx context.Context, url string) (*websocket.Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return ws, err
}
