// Package wsencode serves the streaming Ogg Vorbis encoder over WebSocket.
//
// A client opens
//
//	GET /v1/encode?channels=2&sample_rate=48000&quality=0.5[&serial=7]
//
// and the server answers with the stream header as a binary message,
// followed by a text message {"type":"ready","session":"...","serial":7}.
// From then on every binary message from the client is interleaved
// little-endian float32 PCM, and every non-empty encoded fragment is sent
// back as one binary message, in order. The text message {"type":"finish"}
// ends the stream: the server sends the final fragment, then
// {"type":"done","bytes":N,"frames":M} and closes the connection.
//
// Per-chunk failures are reported as {"type":"error","code":"..."} and the
// session continues:
//
//	malformed_input  chunk is not a whole number of frames
//	out_of_memory    fragment exceeded the server's limit
//	bad_request      unknown text message
//
// init_error (unsupported format) and internal errors end the session.
// An out_of_memory on finish also ends it, since the stream can no longer
// be completed.
//
// Sessions can be archived to a storage.FileStore as <session>.ogg and
// recorded in a journal.Store.
package wsencode
