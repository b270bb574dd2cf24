// Package ws streams the running task's output over a WebSocket at
// /code/stream.
//
// Messages are JSON objects with a "type":
//
//	system    sent once on connect
//	output    a chunk of output ("content"); the first one is the backlog
//	complete  the job ended ("state", "exit_code")
//	error     nothing to stream, or a failure ("message")
//	pong      reply to a {"type":"ping"} from the client
package ws
