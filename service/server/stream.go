package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
	"github.com/brojonat/crypt/service/playback"
	"github.com/brojonat/crypt/service/render"
	"github.com/brojonat/crypt/service/skull"
)

const (
	streamWriteWait  = 5 * time.Second
	streamMaxMessage = 16 << 10
	maxSpectrumBins  = 2048
	defaultStreamFPS = 30
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Messages sent to the client.
type headerMessage struct {
	Type string `json:"type"`
	render.Header
}

type frameMessage struct {
	Type string `json:"type"`
	render.Frame
}

type stateMessage struct {
	Type  string          `json:"type"`
	State *playback.State `json:"state,omitempty"`
	Error string          `json:"error,omitempty"`
}

// streamCommand is a message from the client.
type streamCommand struct {
	Type       string          `json:"type"`
	Track      *playback.Track `json:"track,omitempty"`
	PositionMS int64           `json:"position_ms,omitempty"`
	Bins       []int           `json:"bins,omitempty"`
}

// wsConn serialises writes from the render loop and the command reader.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return c.conn.WriteJSON(v)
}

// streamControl applies client commands to the shared playback session on
// behalf of one card.
type streamControl struct {
	session     *playback.Session
	soundtracks Soundtracks
	owner       string
	cardType    cards.CardType
	acquired    bool
}

var errNoSoundtrack = errors.New("no soundtrack for this card")

// apply runs one command. Spectrum updates return a nil state because they
// arrive at frame rate and need no reply.
func (c *streamControl) apply(ctx context.Context, cmd streamCommand) (*playback.State, error) {
	var err error
	switch cmd.Type {
	case "play":
		track, terr := c.track(ctx, cmd.Track)
		if terr != nil {
			return nil, terr
		}
		st := c.session.Play(c.owner, track)
		c.acquired = true
		return &st, nil
	case "pause":
		err = c.session.Pause(c.owner)
	case "seek":
		err = c.session.Seek(c.owner, time.Duration(cmd.PositionMS)*time.Millisecond)
	case "spectrum":
		return nil, c.session.Publish(c.owner, playback.Bands(spectrumBytes(cmd.Bins)))
	case "release":
		err = c.session.Release(c.owner)
		if err == nil {
			c.acquired = false
		}
	default:
		return nil, errorf("unknown message type %q", cmd.Type)
	}
	if err != nil {
		return nil, err
	}
	st := c.session.State()
	return &st, nil
}

func (c *streamControl) track(ctx context.Context, requested *playback.Track) (playback.Track, error) {
	if requested != nil && requested.ID != "" {
		return *requested, nil
	}
	if c.soundtracks == nil || !c.cardType.Valid() {
		return playback.Track{}, errNoSoundtrack
	}
	st := c.soundtracks.ForCardType(ctx, c.cardType)
	if st == nil {
		return playback.Track{}, errNoSoundtrack
	}
	return playback.Track{
		ID:        st.ID,
		Title:     st.Title,
		Artist:    st.Artist,
		StreamURL: st.StreamURL,
	}, nil
}

// release gives up playback if this stream took it.
func (c *streamControl) release() {
	if c.acquired {
		_ = c.session.Release(c.owner)
	}
}

func spectrumBytes(bins []int) []byte {
	if len(bins) > maxSpectrumBins {
		bins = bins[:maxSpectrumBins]
	}
	out := make([]byte, len(bins))
	for i, v := range bins {
		out[i] = byte(max(0, min(v, 255)))
	}
	return out
}

// handleSkullStream returns a handler that upgrades to a websocket and
// streams rendered frames of a card's skull scene. The card's seed is its
// playback identity; frames react to audio only while that card owns the
// session.
// GET /api/v1/skulls/{seed}/stream?rarity={rarity}&type={card_type}
func handleSkullStream(session *playback.Session, soundtracks Soundtracks, fps int, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if fps <= 0 {
		fps = defaultStreamFPS
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seed := r.PathValue("seed")
		if err := validateSeed(seed); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		query := r.URL.Query()
		rarity, err := parseRarity(query.Get("rarity"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		cardType := cards.CardType(query.Get("type"))
		if cardType != "" && !cardType.Valid() {
			writeError(w, "invalid card type", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied to the client.
			logger.Debug("websocket upgrade failed", "seed", seed, "error", err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(streamMaxMessage)

		scene := render.NewScene(seed, skull.PaletteFor(rarity), 0, 0)
		ws := &wsConn{conn: conn}
		if err := ws.send(headerMessage{Type: "header", Header: scene.Header()}); err != nil {
			logger.Debug("failed to send stream header", "seed", seed, "error", err)
			return
		}
		if m != nil {
			m.RecordSkullGenerated("stream")
		}

		control := &streamControl{
			session:     session,
			soundtracks: soundtracks,
			owner:       seed,
			cardType:    cardType,
		}
		defer control.release()

		loop := render.NewLoop(scene, session, seed, fps, m, logger)
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			return loop.Run(ctx, func(ctx context.Context, f render.Frame) error {
				return ws.send(frameMessage{Type: "frame", Frame: f})
			})
		})
		g.Go(func() error {
			return readCommands(ctx, ws, control, logger)
		})
		g.Go(func() error {
			// Unblocks the reader once either side stops.
			<-ctx.Done()
			conn.Close()
			return nil
		})

		err = g.Wait()
		logger.Debug("skull stream closed",
			"seed", seed,
			"stream_id", loop.ID,
			"reason", err,
		)
	})
}

// readCommands reads client messages until the connection fails. It always
// returns an error so the render loop stops with it.
func readCommands(ctx context.Context, ws *wsConn, control *streamControl, logger *slog.Logger) error {
	for {
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			return err
		}

		var cmd streamCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			if err := ws.send(stateMessage{Type: "error", Error: "invalid message"}); err != nil {
				return err
			}
			continue
		}

		st, err := control.apply(ctx, cmd)
		var reply interface{}
		switch {
		case err != nil:
			logger.Debug("stream command rejected", "type", cmd.Type, "owner", control.owner, "error", err)
			reply = stateMessage{Type: "error", Error: err.Error()}
		case st != nil:
			reply = stateMessage{Type: "state", State: st}
		default:
			continue
		}
		if err := ws.send(reply); err != nil {
			return err
		}
	}
}
