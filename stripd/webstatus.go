package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/codegangsta/negroni"

	"github.com/ravelights/strip_controller/bleproto"
	"github.com/ravelights/strip_controller/stripconfig"
)

// ---------- Status Webserver Code -------------

var statusjsonbytes []byte = []byte("{}")
var statusjsonRWMutex sync.RWMutex

type stripStatus struct {
	Ts              int64                       `json:"ts"`
	LedCount        int                         `json:"led_count"`
	SelectedSegment int                         `json:"selected_segment"`
	Segments        []stripconfig.SegmentConfig `json:"segments"`
}

// UpdateStatusJSON regenerates the snapshot served by the webserver. Called
// from the control loop only; readers take the RLock.
func UpdateStatusJSON(d *bleproto.Dispatcher) {
	status := stripStatus{
		Ts:              time.Now().Unix(),
		LedCount:        d.Strip().LedCount(),
		SelectedSegment: d.Selected(),
		Segments:        stripconfig.Snapshot(d.Strip()).Segments,
	}
	data, err := json.Marshal(status)
	if err != nil {
		Syslog_.Print("Error marshalling status", err)
		return
	}
	statusjsonRWMutex.Lock()
	statusjsonbytes = data
	statusjsonRWMutex.Unlock()
}

func webServeStatus(w http.ResponseWriter, r *http.Request) {
	defer recover() //don't crash just exit goroutine
	w.Header().Add("Cache-Control", "no-cache")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Content-Type", "application/json")
	statusjsonRWMutex.RLock()
	w.Write(statusjsonbytes)
	statusjsonRWMutex.RUnlock()
}

func goRunWebserver(listenaddr string) {
	n := negroni.Classic()
	mux := http.NewServeMux()
	mux.HandleFunc("/", webServeStatus)
	mux.HandleFunc("/status.json", webServeStatus)
	n.UseHandler(mux)
	http.ListenAndServe(listenaddr, n)
}
