package game

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxFrameSize  = 8 * 1024
	pongWait      = time.Minute
	closeDeadline = 20 * time.Second
)

type websocketConnection struct {
	socket    *websocket.Conn
	closeOnce sync.Once
}

func (wc *websocketConnection) Write(data []byte) error {
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	return wc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(closeDeadline))
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *websocketConnection) Close() {
	wc.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		wc.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeDeadline))
		wc.socket.Close()
	})
}

func NewWebsocketConnection(conn *websocket.Conn) *websocketConnection {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &websocketConnection{socket: conn}
}
