package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"munin.szuro.net/pkg/munin"
)

const LOADAVG = "/proc/loadavg"

// LoadPlugin graphs the five minute load average.
type LoadPlugin struct {
	Path string
}

func (p *LoadPlugin) Config(w io.Writer) error {
	_, err := io.WriteString(w, `graph_title Load average
graph_args --base 1000 -l 0
graph_vlabel load
graph_scale no
graph_category system
load.label load
load.warning 10
load.critical 120
graph_info The load average of the machine describes how many processes are in the run-queue (scheduled to run immediately).
load.info Average load for the five minutes.
`)
	return err
}

func (p *LoadPlugin) Acquire(w io.Writer, cfg *munin.Config, epoch uint64) error {
	load, err := p.fiveMinuteLoad()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "load.value %d\n", int64(load*100))
	return err
}

func (p *LoadPlugin) CheckAutoconf() bool {
	_, err := p.fiveMinuteLoad()
	return err == nil
}

func (p *LoadPlugin) fiveMinuteLoad() (float64, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, fmt.Errorf("reading load average: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return 0, fmt.Errorf("unexpected content in %s: %q", p.Path, data)
	}
	return strconv.ParseFloat(fields[1], 64)
}
