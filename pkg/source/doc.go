// ABOUTME: Chunk sources for streamed speech synthesis responses
// ABOUTME: Reads audio chunks from server-sent events or websocket messages
// Package source turns a streamed synthesis response into audio chunks.
//
// Both readers understand the same JSON event objects. The audio payload is
// taken from a top-level "audio_chunk" or from choices[0].delta /
// choices[0].message "audio_chunk", either as a base64 string or as an object
// with "data" and "sample_rate" fields. A "[DONE]" payload ends the stream.
package source
