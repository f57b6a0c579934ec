package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// eventRecord is one decoded event log line.
type eventRecord struct {
	Time      time.Time `json:"t"`
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Comp      string    `json:"comp"`
	SessionID string    `json:"session_id"`
	QueryID   string    `json:"qid"`
	Seq       uint64    `json:"seq"`
	DurMs     float64   `json:"dur_ms"`
	Count     int       `json:"count"`
	Field     string    `json:"field"`
	Action    string    `json:"action"`
	Query     string    `json:"query"`
	Err       string    `json:"err"`
	Msg       string    `json:"msg"`
}

func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	}
	return 0
}

// eventFilter selects log lines by the vf events flags.
type eventFilter struct {
	kind     string
	minLevel string
	comp     string
	qid      string
	seq      uint64
}

func (f eventFilter) match(ev eventRecord) bool {
	switch {
	case f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind):
		return false
	case f.minLevel != "" && levelRank(ev.Level) < levelRank(f.minLevel):
		return false
	case f.comp != "" && ev.Comp != f.comp:
		return false
	case f.qid != "" && ev.QueryID != f.qid:
		return false
	case f.seq != 0 && ev.Seq != f.seq:
		return false
	}
	return true
}

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	tail := fs.Int("tail", 50, "Number of recent lines (or chains with -chains) to show")
	follow := fs.Bool("f", false, "Follow mode (like tail -f)")
	chains := fs.Bool("chains", false, "Group events into refresh chains: filter edits, ui.refresh and its list queries")
	rawJSON := fs.Bool("json", false, "Output raw JSON lines")
	var filter eventFilter
	fs.StringVar(&filter.kind, "kind", "", "Filter by event kind prefix (e.g. 'filter.')")
	fs.StringVar(&filter.minLevel, "level", "", "Minimum level: debug, info, warn, error")
	fs.StringVar(&filter.comp, "comp", "", "Filter by component name")
	fs.StringVar(&filter.qid, "qid", "", "Filter by query ID")
	fs.Uint64Var(&filter.seq, "seq", 0, "Filter by refresh sequence number")
	fs.Parse(os.Args[1:])

	logPath := loadConfig().Data.EventLog
	if logPath == "" {
		fmt.Fprintln(os.Stderr, "error: event log disabled ([data] event_log is empty)")
		os.Exit(1)
	}

	f, err := os.Open(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  Event log not found at %s\n", logPath)
		fmt.Fprintf(os.Stderr, "  Run vocabfilter first to generate events.\n")
		os.Exit(1)
	}
	defer f.Close()

	if *chains {
		// Chains need every filter.* event, so only the flags that pick
		// whole chains apply.
		all := readEvents(f, eventFilter{})
		writeChains(os.Stdout, lastChains(buildChains(all), filter, *tail))
		return
	}

	show := func(l parsedLine) {
		if *rawJSON {
			fmt.Println(string(l.raw))
			return
		}
		fmt.Println(formatEvent(l.ev))
	}

	lines := readEvents(f, filter)
	if *tail > 0 && len(lines) > *tail {
		lines = lines[len(lines)-*tail:]
	}
	for _, l := range lines {
		show(l)
	}
	if !*follow {
		return
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		line = trimLine(line)
		var ev eventRecord
		if len(line) == 0 || json.Unmarshal(line, &ev) != nil {
			continue
		}
		if filter.match(ev) {
			show(parsedLine{ev: ev, raw: line})
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readEvents decodes every matching line of r. Malformed lines are skipped.
func readEvents(r io.Reader, filter eventFilter) []parsedLine {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var out []parsedLine
	for scanner.Scan() {
		raw := scanner.Bytes()
		var ev eventRecord
		if len(raw) == 0 || json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if filter.match(ev) {
			out = append(out, parsedLine{ev: ev, raw: append([]byte(nil), raw...)})
		}
	}
	return out
}

// formatEvent renders one event as a log line, with a kind-specific body
// for filter and list events.
func formatEvent(ev eventRecord) string {
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}
	head := fmt.Sprintf("%s %-5s [%-6s] %-22s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)
	if body := eventBody(ev); body != "" {
		return head + " " + body
	}
	return head
}

func eventBody(ev eventRecord) string {
	switch ev.Kind {
	case "filter.field_changed":
		return fmt.Sprintf("%s → %s", ev.Field, ev.Query)
	case "filter.action":
		return fmt.Sprintf("%s (%d %s changed)", ev.Action, ev.Count, plural(ev.Count, "field", "fields"))
	case "filter.changed":
		return fmt.Sprintf("%s ⇒ %s (%d %s)", ev.Action, ev.Query, ev.Count, plural(ev.Count, "listener", "listeners"))
	case "ui.refresh", "list.query_skip":
		return fmt.Sprintf("#%d %s", ev.Seq, ev.Query)
	case "list.query_start":
		return fmt.Sprintf("#%d %s %s", ev.Seq, ev.QueryID, ev.Query)
	case "list.query_complete":
		return fmt.Sprintf("#%d %s %d %s in %.*fms", ev.Seq, ev.QueryID, ev.Count, plural(ev.Count, "match", "matches"), durPrecision(ev.DurMs), ev.DurMs)
	case "list.query_error":
		return fmt.Sprintf("#%d %s err=%s", ev.Seq, ev.QueryID, ev.Err)
	case "ui.stale_result":
		return fmt.Sprintf("#%d %s %s dropped", ev.Seq, ev.QueryID, ev.Msg)
	}

	var parts []string
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.QueryID != "" {
		parts = append(parts, "qid="+ev.QueryID)
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

// refreshChain is one committed filter change followed through the list
// controller: the filter edits that led to it, the ui.refresh that
// requested it, and the list and ui events carrying its seq.
type refreshChain struct {
	Seq     uint64
	Session string
	Edits   []eventRecord // filter.* events since the previous refresh
	Refresh eventRecord
	Events  []eventRecord // list.* and ui.stale_result events with Seq
}

// Outcome summarizes how the chain ended.
func (c *refreshChain) Outcome() string {
	outcome := "pending"
	for _, ev := range c.Events {
		switch ev.Kind {
		case "list.query_complete":
			outcome = fmt.Sprintf("%d %s", ev.Count, plural(ev.Count, "match", "matches"))
		case "list.query_error":
			outcome = "failed: " + ev.Err
		case "list.query_skip":
			outcome = "superseded"
		case "ui.stale_result":
			return "stale, dropped by the UI"
		}
	}
	return outcome
}

func (c *refreshChain) queryIDs() []string {
	var ids []string
	for _, ev := range c.Events {
		if ev.QueryID != "" && (len(ids) == 0 || ids[len(ids)-1] != ev.QueryID) {
			ids = append(ids, ev.QueryID)
		}
	}
	return ids
}

// buildChains groups events into refresh chains in log order. Sequence
// numbers restart with each session, so chains are keyed by both.
func buildChains(events []parsedLine) []*refreshChain {
	type key struct {
		session string
		seq     uint64
	}
	var (
		chains []*refreshChain
		bySeq  = make(map[key]*refreshChain)
		edits  = make(map[string][]eventRecord)
	)
	for _, l := range events {
		ev := l.ev
		switch {
		case strings.HasPrefix(ev.Kind, "filter."):
			edits[ev.SessionID] = append(edits[ev.SessionID], ev)
		case ev.Kind == "ui.refresh":
			c := &refreshChain{Seq: ev.Seq, Session: ev.SessionID, Edits: edits[ev.SessionID], Refresh: ev}
			edits[ev.SessionID] = nil
			chains = append(chains, c)
			bySeq[key{ev.SessionID, ev.Seq}] = c
		case ev.Seq != 0:
			if c, ok := bySeq[key{ev.SessionID, ev.Seq}]; ok {
				c.Events = append(c.Events, ev)
			}
		}
	}
	return chains
}

// lastChains keeps the newest n chains that contain an event matching
// filter. n <= 0 keeps all.
func lastChains(chains []*refreshChain, filter eventFilter, n int) []*refreshChain {
	var out []*refreshChain
	for _, c := range chains {
		if chainMatches(c, filter) {
			out = append(out, c)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func chainMatches(c *refreshChain, filter eventFilter) bool {
	if filter.match(c.Refresh) {
		return true
	}
	for _, group := range [][]eventRecord{c.Edits, c.Events} {
		for _, ev := range group {
			if filter.match(ev) {
				return true
			}
		}
	}
	return false
}

func writeChains(w io.Writer, chains []*refreshChain) {
	if len(chains) == 0 {
		fmt.Fprintln(w, "no refresh chains")
		return
	}
	for i, c := range chains {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "#%d %s %s: %s\n", c.Seq, c.Refresh.Time.Format("15:04:05.000"), c.Refresh.Query, c.Outcome())
		if ids := c.queryIDs(); len(ids) > 0 {
			fmt.Fprintf(w, "   qid %s\n", strings.Join(ids, ", "))
		}
		for _, ev := range c.Edits {
			fmt.Fprintf(w, "   %-20s %s\n", ev.Kind, eventBody(ev))
		}
		for _, ev := range c.Events {
			fmt.Fprintf(w, "   %-20s %s\n", ev.Kind, eventBody(ev))
		}
	}
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
