package http

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/core/admin"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 50 * time.Second
)

type LiveHttp struct {
	View     *admin.View
	Upgrader websocket.Upgrader
}

// RegisterLiveHttp mounts the websocket stream. The mux it is given must not
// sit behind TimeoutMiddleware, which cannot hijack connections.
func RegisterLiveHttp(mux *http.ServeMux, view *admin.View) *LiveHttp {
	in := &LiveHttp{
		View: view,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux.HandleFunc("GET /api/live", RequireAdmin(view.Policy, in.live))

	return in
}

func (in *LiveHttp) live(w http.ResponseWriter, r *http.Request) {
	conn, err := in.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "live upgrade failed", slog.Any(constant.LogFieldErr, err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	clientAttr := slog.String("client_id", uuid.NewString())
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	states, err := in.View.Live(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open live view", traceIdAttr, clientAttr, slog.Any(constant.LogFieldErr, err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "live view unavailable"),
			time.Now().Add(liveWriteWait))
		return
	}

	slog.InfoContext(ctx, "live client connected", traceIdAttr, clientAttr)

	// the read loop only watches for close and pong frames
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "live client disconnected", traceIdAttr, clientAttr)
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		case state, ok := <-states:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(state); err != nil {
				slog.DebugContext(ctx, "live write failed", clientAttr, slog.Any(constant.LogFieldErr, err))
				return
			}
		}
	}
}
