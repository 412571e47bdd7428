package tapedeck

import (
	"net/http"

	"github.com/audiolibrelab/tapedeck/config"
)

// NewClient returns a fresh *http.Client together with the Recorder that
// controls its transport. The client behaves like a plain client until a
// session is started:
//
//	client, rec := tapedeck.NewClient(config.Default())
//	if err := rec.Start("my fixture", tape.ModeReadWrite); err != nil { ... }
//	defer rec.Stop()
//	res, err := client.Get("https://api.example.com/things")
func NewClient(cfg *config.Settings) (*http.Client, *Recorder) {
	client := &http.Client{Transport: http.DefaultTransport}
	return client, New(cfg, client)
}
