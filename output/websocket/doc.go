// Package websocket streams engine events to WebSocket clients.
//
// # Overview
//
// Output runs an HTTP server with one WebSocket endpoint. Every external
// event handed to Output.Handle is wrapped in a MessageEnvelope and fanned
// out to all connected clients. Clients only listen; anything they send is
// read and discarded so that control frames (ping, pong, close) are
// processed.
//
// # Message Format
//
//	{
//	  "type": "event",
//	  "id": "5f0c...",
//	  "timestamp": 1767323045000,
//	  "payload": {"kind": "ZoneVolume", "source": "...", "time": "...", "data": {"zone": 3, "volume": -20}}
//	}
//
// The payload is the event.Envelope also used on NATS.
//
// # Client Management
//
// Each client gets:
//
//	// 1. A UUID used in logs
//	// 2. A bounded send queue (Config.SendQueue)
//	// 3. A write goroutine that owns all writes, including pings
//	// 4. A read goroutine that extends the read deadline on every pong
//
// Handle never blocks. A client whose queue is full is disconnected with
// reason "slow"; the other clients are unaffected.
//
// # Usage
//
//	out := websocket.New(websocket.Config{Addr: ":8090"}, websocket.WithLogger(logger))
//	if err := out.Start(ctx); err != nil {
//	    return err
//	}
//	defer out.Stop(5 * time.Second)
//	unsubscribe := app.Subscribe(out.Handle)
//
// Handler exposes the endpoint for embedding in another mux or an
// httptest.Server.
package websocket
