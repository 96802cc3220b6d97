// Package file writes external events to a JSON-lines journal on disk.
//
// Each line is one event envelope, the same document the NATS and
// WebSocket sinks carry:
//
//	{"kind":"ZoneVolume","source":"rack-1","time":"...","data":{"zone":2,"volume":-15}}
//
// Writes are buffered. The buffer is flushed when it holds BufferSize
// events, every FlushInterval and on Stop. Internal events are never
// written.
//
// # Usage
//
//	j := file.New(file.Config{Path: "/var/log/hlx/events.jsonl", Append: true},
//	    file.WithLogger(logger), file.WithMetrics(metrics))
//	if err := j.Start(ctx); err != nil {
//	    return err
//	}
//	defer j.Stop(5 * time.Second)
//	app.Subscribe(j.Handle)
package file
