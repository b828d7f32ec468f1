// Command topodemo is an ambient demo host for the poldercast topology
// engine: it simulates a small in-memory swarm of peers gossiping with
// each other on a ticker and exposes the resulting topology over
// HTTP/WebSocket for a browser dashboard. It never opens a socket
// between simulated peers — gossip rounds are plain in-process function
// calls against the synchronous core, standing in for the transport and
// scheduler the engine intentionally does not own.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	port := flag.String("port", "8099", "Port to serve the demo HTTP/WS surface on")
	peers := flag.Int("peers", 12, "Number of simulated peers in the swarm")
	topics := flag.Int("topics", 5, "Number of synthetic topics peers subscribe to")
	seed := flag.Int64("seed", 1, "PRNG seed for deterministic demo runs")
	roundInterval := flag.Duration("round-interval", 500*time.Millisecond, "Interval between simulated gossip rounds")
	flag.Parse()

	fmt.Printf("🌐 Starting poldercast topology demo: %d peers, %d topics, seed=%d\n", *peers, *topics, *seed)

	swarm, err := NewSwarm(*peers, *topics, *seed)
	if err != nil {
		log.Fatal("failed to build swarm:", err)
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(*roundInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				swarm.Step()
			case <-stop:
				return
			}
		}
	}()

	router := NewRouter(swarm)

	fmt.Printf("📡 HTTP/WS surface on http://localhost:%s (status, peers, strike, ws)\n", *port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- router.Run(":" + *port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatal("demo host failed:", err)
		}
	case <-sigChan:
		fmt.Printf("\n🛑 Shutdown signal received, stopping gossip rounds...\n")
		close(stop)
	}

	fmt.Printf("✅ Demo host shutdown complete\n")
}
