package main

import (
	"log"
	"os"
	"time"

	"github.com/xtaci/aiofetch"
)

// fetches every URL given on the command line through one pump loop
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: fetch <url> [url...]")
	}

	c := aiofetch.New(aiofetch.Config{Timeout: 10 * time.Second})
	c.OnError(func(code int, err error) {
		log.Println("request failed:", code, err)
	})

	for _, url := range os.Args[1:] {
		u := url
		id := c.Get(u, func(r *aiofetch.Response) {
			log.Printf("%v -> %v (%v bytes)\n%s", u, r.StatusCode(), len(r.Body()), r.Body())
		})
		if id < 0 {
			log.Println("submit failed:", u, id)
		}
	}

	for c.Pending() > 0 {
		c.Pump()
		time.Sleep(10 * time.Millisecond)
	}
}
