package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"antmania.dev/internal/protocol"
)

// observe tails a live run: it subscribes to the antmania observer
// endpoint, replays the backlog, and prints records as they stream.
func main() {
	var (
		url    = flag.String("url", "ws://127.0.0.1:7766/v1/observe", "observer ws url (pair with antmania -observe)")
		from   = flag.Uint64("from", 0, "first sequence number to replay")
		follow = flag.Bool("follow", true, "stay for live records until RUN_END")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[observe] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := protocol.SubscribeMsg{
		Type:            protocol.TypeSubscribe,
		ProtocolVersion: protocol.Version,
		FromSeq:         *from,
		Follow:          *follow,
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			// Normal closure after the backlog (or RUN_END) is not news.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			logger.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeHello:
			var h protocol.HelloMsg
			if err := json.Unmarshal(msg, &h); err != nil {
				continue
			}
			logger.Printf("HELLO run=%s last_seq=%d", h.RunID, h.LastSeq)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("ERROR %s: %s", e.Code, e.Message)

		default:
			rec, err := protocol.DecodeRecord(msg)
			if err != nil {
				continue
			}
			printRecord(logger, rec)
		}
	}
}

func printRecord(logger *log.Logger, rec protocol.Record) {
	switch r := rec.(type) {
	case *protocol.RunStart:
		logger.Printf("run %s: map=%s sites=%d ants=%d seed=%d max_moves=%d",
			r.RunID, r.MapName, r.Sites, r.Agents, r.Seed, r.MaxMoves)
	case *protocol.Destroyed:
		fmt.Printf("[tick %d] %s has been destroyed by ant %d and ant %d!\n",
			r.Tick, r.SiteName, r.AntA, r.AntB)
	case *protocol.TickMark:
		logger.Printf("tick %d: active=%d alive_sites=%d digest=%.12s",
			r.Tick, r.Active, r.AliveSites, r.Digest)
	case *protocol.RunEnd:
		logger.Printf("run over: ticks=%d destroyed=%d survivors=%d stationary=%d elapsed=%.3fms",
			r.Ticks, r.DestroyedSites, r.Survivors, r.Stationary, r.ElapsedMS)
	}
}
