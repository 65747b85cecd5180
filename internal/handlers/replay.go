package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/nyrahul/shellsight/internal/catalog"
	"github.com/nyrahul/shellsight/internal/config"
	"github.com/nyrahul/shellsight/internal/logutil"
	"github.com/nyrahul/shellsight/internal/middleware"
	"github.com/nyrahul/shellsight/internal/replay"
	"golang.org/x/time/rate"
)

// replayControlRate caps inbound control messages per second per socket.
// Messages beyond the rate are dropped.
const replayControlRate = 10

// replayControlBurst lets a client fire a few play/stop toggles back to back.
const replayControlBurst = 20

// replayEventBuffer is the number of events queued for the socket writer.
const replayEventBuffer = 64

// replayReadLimit bounds the size of a single control message.
const replayReadLimit = 4096

type replayControlMsg struct {
	Type  string  `json:"type"`
	Speed float64 `json:"speed"`
}

// ReplayWS streams a recording over a WebSocket.
//
// Client messages:
//
//	{"type":"play","speed":N}  start a replay, cancelling any running one
//	{"type":"stop"}            stop the running replay
//
// Server messages are replay events: start, output, end, stopped, error.
// When the speed query parameter is present playback starts on connect.
func ReplayWS(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	if err := catalog.ValidateFolder(folder); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recording folder")
		return
	}
	namespace := middleware.Namespace(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[replay] failed to accept websocket: %v", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(replayReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sink := replay.NewChannelSink(replayEventBuffer)
	player := replay.NewPlayer(sink, ReplayClock)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer sink.Close()
		for {
			select {
			case ev := <-sink.Events():
				if err := wsjson.Write(ctx, conn, ev); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	play := func(speed float64) {
		if speed == 0 {
			speed = config.Cfg.DefaultSpeed
		}
		speed = replay.NormalizeSpeed(speed, config.Cfg.MaxSpeed)

		rec, err := Catalog.Load(ctx, namespace, folder)
		if err != nil {
			msg := "failed to load recording"
			if errors.Is(err, catalog.ErrRecordingNotFound) {
				msg = "recording not found"
			} else {
				log.Printf("[replay] load %s failed: %v", logutil.SanitizeForLog(folder), err)
			}
			player.Stop()
			sink.Emit(replay.ErrorEvent(msg))
			return
		}

		if s := player.Play(rec.Timing, rec.Output, speed); s != nil {
			log.Printf("[replay] session %s playing %s at %gx", s.ID, logutil.SanitizeForLog(folder), s.Speed())
		}
	}

	if q := r.URL.Query().Get("speed"); q != "" {
		speed, err := strconv.ParseFloat(q, 64)
		if err != nil {
			speed = 0
		}
		play(speed)
	}

	limiter := rate.NewLimiter(rate.Limit(replayControlRate), replayControlBurst)
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		if !limiter.Allow() {
			continue
		}
		if msgType != websocket.MessageText {
			sink.Emit(replay.ErrorEvent("unsupported message"))
			continue
		}

		var msg replayControlMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[replay] malformed control message: %s", logutil.PreviewBytes(data, 64))
			sink.Emit(replay.ErrorEvent("malformed message"))
			continue
		}

		switch msg.Type {
		case "play":
			play(msg.Speed)
		case "stop":
			s := player.Current()
			if player.Stop() {
				p := s.Progress()
				log.Printf("[replay] session %s stopped at entry %d/%d (%d bytes)", s.ID, p.Cursor, p.Entries, p.BytesEmitted)
				sink.Emit(replay.Event{Type: replay.EventStopped, SessionID: s.ID})
			}
		default:
			sink.Emit(replay.ErrorEvent("unknown message type"))
		}
	}

	player.Close()
	cancel()
	<-writerDone
	conn.Close(websocket.StatusNormalClosure, "")
}
