package main

import (
	"bufio"
	"strings"
	"syscall"

	"github.com/schleibinger/sio"
)

// ---------- Serial Console Code -------------

// OpenAndHandleConsole attaches the maintenance text console to a serial
// port. Lines read from the port come out of rd stripped and non-empty;
// strings sent into wr are written with a trailing newline. Closing wr
// closes the port.
func OpenAndHandleConsole(ttypath string) (chan string, chan string, error) {
	port, err := sio.Open(ttypath, syscall.B115200)
	if err != nil {
		return nil, nil, err
	}
	wr := make(chan string, 10)
	rd := make(chan string, 10)
	go consoleWriter(wr, port)
	go consoleReader(rd, port)
	return wr, rd, nil
}

func consoleWriter(in <-chan string, port *sio.Port) {
	for line := range in {
		port.Write([]byte(line + "\r\n"))
	}
	port.Close()
}

func consoleReader(out chan<- string, port *sio.Port) {
	linescanner := bufio.NewScanner(port)
	linescanner.Split(bufio.ScanLines)
	for linescanner.Scan() {
		line := strings.TrimSpace(linescanner.Text())
		if len(line) == 0 {
			continue
		}
		out <- line
	}
	close(out)
}
