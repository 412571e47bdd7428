/*
Package tapedeck records and replays HTTP interactions so test suites can run
deterministically against a "tape" of prior traffic instead of a live
service.

A Recorder opens a named tape in one of five modes and installs an
interceptor into an *http.Client's transport chain. While the session is
active, every outgoing request is matched against the tape's recorded
interactions (method and URL by default, optionally a configured header
subset) and, depending on the mode, the interceptor plays back a stored
response, forwards the request live and records the result, refreshes a
stale entry in place, or rejects the request without touching the network:

	READ_ONLY         play back matches, reject everything else
	READ_SEQUENTIAL   play back strictly in recorded order via a cursor
	READ_WRITE        play back matches, record anything unmatched
	WRITE_ONLY        forward live, overwriting a matched entry in place
	WRITE_SEQUENTIAL  forward live, appending even when a match exists

Tapes persist as human-editable YAML documents tagged !tape:

	!tape
	name: my fixture
	interactions:
	- recorded: "2026-03-14T09:26:53.000Z"
	  request:
	    method: GET
	    url: http://example.com/
	    headers: {}
	  response:
	    status: 200
	    headers:
	      Content-Type: text/plain
	    body: Hello World!

Loading a document and saving the unmodified tape reproduces byte-equivalent
content, so tapes sit comfortably under version control.
*/
package tapedeck
