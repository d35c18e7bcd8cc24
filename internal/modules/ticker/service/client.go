package service

import (
	"context"
	"encoding/binary"
	"net/url"
	"time"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	modeLTP        = "ltp"
	reconnectDelay = 2 * time.Second
)

type wsCommand struct {
	Action string `json:"a"`
	Value  any    `json:"v"`
}

// Feed streams last-traded prices for the session's instruments over the
// broker websocket. One connection serves every account; the primary
// account's credentials authenticate it.
type Feed struct {
	wsURL       string
	apiKey      string
	accessToken string
	tokens      []int64
	out         chan []models.Tick
}

func NewFeed(wsURL string, acc models.UserAccount, instruments []models.Instrument, buffer int) *Feed {
	if buffer <= 0 {
		buffer = 200
	}
	tokens := make([]int64, 0, len(instruments))
	for _, inst := range instruments {
		tokens = append(tokens, inst.Token)
	}
	return &Feed{
		wsURL:       wsURL,
		apiKey:      acc.APIKey,
		accessToken: acc.AccessToken,
		tokens:      tokens,
		out:         make(chan []models.Tick, buffer),
	}
}

// Ticks is the outbound batch stream. When the consumer lags, the oldest
// batch is dropped; a stale price is worse than a missed one.
func (f *Feed) Ticks() <-chan []models.Tick {
	return f.out
}

// Run keeps the websocket alive until ctx is done, redialling on any
// connection failure.
func (f *Feed) Run(ctx context.Context) {
	for {
		if err := f.connectAndServe(ctx); err != nil {
			logger.Error("ticker connection lost: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *Feed) connectAndServe(ctx context.Context) error {
	u := f.wsURL + "?" + url.Values{
		"api_key":      {f.apiKey},
		"access_token": {f.accessToken},
	}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := f.subscribe(conn); err != nil {
		return err
	}
	logger.Info("ticker connected: %d instruments subscribed", len(f.tokens))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.BinaryMessage || len(data) < 2 {
			// text frames carry order updates we get via postbacks,
			// one-byte binary frames are heartbeats
			continue
		}
		if batch := parseBinary(data); len(batch) > 0 {
			f.publish(batch)
		}
	}
}

func (f *Feed) subscribe(conn *websocket.Conn) error {
	for _, cmd := range []wsCommand{
		{Action: "subscribe", Value: f.tokens},
		{Action: "mode", Value: []any{modeLTP, f.tokens}},
	} {
		payload, err := sonic.Marshal(cmd)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return err
		}
	}
	return nil
}

func (f *Feed) publish(batch []models.Tick) {
	select {
	case f.out <- batch:
	default:
		// buffer full: drop the oldest batch to make room
		select {
		case <-f.out:
		default:
		}
		select {
		case f.out <- batch:
		default:
		}
	}
}

// parseBinary unpacks a broker quote frame: a big-endian packet count, then
// length-prefixed packets of instrument token and last price in paise.
func parseBinary(data []byte) []models.Tick {
	count := int(binary.BigEndian.Uint16(data[0:2]))
	ticks := make([]models.Tick, 0, count)
	offset := 2
	for i := 0; i < count; i++ {
		if offset+2 > len(data) {
			break
		}
		packetLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
		offset += 2
		if packetLen < 8 || offset+packetLen > len(data) {
			break
		}
		packet := data[offset : offset+packetLen]
		offset += packetLen

		ticks = append(ticks, models.Tick{
			Token:     int64(binary.BigEndian.Uint32(packet[0:4])),
			LastPrice: float64(int32(binary.BigEndian.Uint32(packet[4:8]))) / 100,
		})
	}
	return ticks
}
