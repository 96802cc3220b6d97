// Package server simulates an HLX matrix: it owns the authoritative model
// and answers requests from any number of connected clients.
//
// Every request is dispatched on one loop. A handler validates its
// captures, mutates the model and appends frames to a Reply. Query
// replies go to the requester only; state changes are broadcast to every
// open session, requester included, in the order they were generated. A
// request that does not match, fails validation or cannot be applied is
// answered with ERR and changes nothing.
//
// Each session queues its outbound frames in a bounded buffer. When the
// buffer passes its high watermark the session's reader is paused until a
// writer drains it, so a client that stops reading stops being read.
package server
