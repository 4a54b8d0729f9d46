// wsclient joins a code block session from the terminal. every line read
// from stdin is sent as the full buffer; frames from the server are printed.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type Message struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Sequence uint64          `json:"seq,omitempty"`
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server host:port")
	codeBlock := flag.String("codeblock", "", "code block id to join")
	identity := flag.String("identity", "", "stable client id, lets a mentor reclaim after reconnecting")
	flag.Parse()

	if *codeBlock == "" {
		fmt.Println("Usage: wsclient -codeblock <id> [-addr host:port] [-identity id]")
		os.Exit(1)
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	q := u.Query()
	q.Set("codeblock", *codeBlock)
	if *identity != "" {
		q.Set("identity", *identity)
	}
	u.RawQuery = q.Encode()

	fmt.Printf("connecting to %s\n", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close() //nolint:errcheck // process exit

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})

	// print incoming frames
	go func() {
		defer close(done)
		for {
			var msg Message
			if err := c.ReadJSON(&msg); err != nil {
				log.Println("read:", err)
				return
			}
			fmt.Printf("<- %-20s %s\n", msg.Type, msg.Payload)
		}
	}()

	// each stdin line replaces the buffer
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			payload, _ := json.Marshal(scanner.Text()) //nolint:errchkjson // string always marshals
			if err := c.WriteJSON(Message{Type: "codeChange", Payload: payload}); err != nil {
				log.Println("write:", err)
				return
			}
		}
	}()

	select {
	case <-done:
		return
	case <-interrupt:
		fmt.Println("\nclosing connection")

		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
