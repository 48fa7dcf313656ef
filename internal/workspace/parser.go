// Package workspace reads agent workspaces on disk: the HEARTBEAT.md task
// list and the dated memory logs.
package workspace

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/captainbotgit/mission-control/internal/models"
)

// Parser extracts entries from one markdown document.
type Parser[T any] interface {
	Parse(src []byte) []T
}

// TaskEntry is a task found in HEARTBEAT.md.
type TaskEntry struct {
	Code     string // e.g. "T005", empty when the heading has none
	Title    string
	Priority string
	Done     bool
}

// LogEntry is one top-level bullet of a daily memory log.
type LogEntry struct {
	Text string
	Time string // "HH:MM", empty when the bullet names no time
	Type string
}

const (
	openTasksSection = "OPEN TASKS"
	doneSection      = "DONE"
	doneMarker       = "✅"
	maxTitleLen      = 200
	minLogEntryLen   = 5
)

var (
	taskCodeRe    = regexp.MustCompile(`^(T\d+)\s*[—–-]\s*`)
	parentheticRe = regexp.MustCompile(`\s*\(.*?\)\s*`)
	taskPrioRe    = regexp.MustCompile(`P(\d)`)
	doneStampRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s*\d{2}:\d{2}:\s*`)
	logTimeRe     = regexp.MustCompile(`(\d{1,2}:\d{2})`)
)

var md = goldmark.New()

func parse(src []byte) ast.Node {
	return md.Parser().Parse(text.NewReader(src))
}

// nodeText returns the plain text under n.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// HeartbeatParser reads the OPEN TASKS and DONE sections of HEARTBEAT.md.
type HeartbeatParser struct{}

// Parse returns every open task heading and every checked-off done line.
func (HeartbeatParser) Parse(src []byte) []TaskEntry {
	doc := parse(src)

	var (
		tasks   []TaskEntry
		section string
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level <= 2 {
			section = strings.ToUpper(nodeText(h, src))
			continue
		}

		switch {
		case strings.HasPrefix(section, openTasksSection):
			if h, ok := n.(*ast.Heading); ok && h.Level == 3 {
				if t, ok := openTask(nodeText(h, src)); ok {
					tasks = append(tasks, t)
				}
			}
		case strings.HasPrefix(section, doneSection):
			for _, line := range blockLines(n, src) {
				if t, ok := doneTask(line); ok {
					tasks = append(tasks, t)
				}
			}
		}
	}
	return tasks
}

// blockLines returns the text lines of a block, one per list item for lists.
func blockLines(n ast.Node, src []byte) []string {
	if list, ok := n.(*ast.List); ok {
		var lines []string
		for item := list.FirstChild(); item != nil; item = item.NextSibling() {
			lines = append(lines, strings.Split(nodeText(item, src), "\n")...)
		}
		return lines
	}
	return strings.Split(nodeText(n, src), "\n")
}

func openTask(heading string) (TaskEntry, bool) {
	t := TaskEntry{Priority: models.PriorityMedium}
	if m := taskCodeRe.FindStringSubmatch(heading); m != nil {
		t.Code = m[1]
	}
	if m := taskPrioRe.FindStringSubmatch(heading); m != nil && (m[1] == "0" || m[1] == "1") {
		t.Priority = models.PriorityHigh
	}

	title := taskCodeRe.ReplaceAllString(heading, "")
	title = parentheticRe.ReplaceAllString(title, " ")
	t.Title = truncate(strings.TrimSpace(title), maxTitleLen)
	return t, t.Title != ""
}

func doneTask(line string) (TaskEntry, bool) {
	_, after, found := strings.Cut(line, doneMarker)
	if !found {
		return TaskEntry{}, false
	}
	title := doneStampRe.ReplaceAllString(strings.TrimSpace(after), "")
	title = strings.TrimSpace(title)
	if title == "" {
		return TaskEntry{}, false
	}
	return TaskEntry{Title: truncate(title, maxTitleLen), Priority: models.PriorityMedium, Done: true}, true
}

// DailyLogParser reads the top-level bullets of a memory/YYYY-MM-DD.md log.
type DailyLogParser struct{}

// Parse returns one entry per top-level bullet of at least five characters.
func (DailyLogParser) Parse(src []byte) []LogEntry {
	doc := parse(src)

	var entries []LogEntry
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		list, ok := n.(*ast.List)
		if !ok || list.IsOrdered() {
			continue
		}
		for item := list.FirstChild(); item != nil; item = item.NextSibling() {
			if item.FirstChild() == nil {
				continue
			}
			line := strings.ReplaceAll(nodeText(item.FirstChild(), src), "\n", " ")
			if utf8.RuneCountInString(line) < minLogEntryLen {
				continue
			}
			e := LogEntry{Text: line, Type: Classify(line)}
			if m := logTimeRe.FindString(line); m != "" {
				e.Time = m
				if len(e.Time) == 4 {
					e.Time = "0" + e.Time
				}
			}
			entries = append(entries, e)
		}
	}
	return entries
}

var classifyRules = []struct {
	re  *regexp.Regexp
	typ string
}{
	{regexp.MustCompile(`deploy|ship`), models.ActivityDeploy},
	{regexp.MustCompile(`commit|push|wrote`), models.ActivityCommit},
	{regexp.MustCompile(`critical|fix`), models.ActivityAlert},
	{regexp.MustCompile(`completed|done`), models.ActivityTask},
}

// Classify guesses an activity type from keywords in line.
func Classify(line string) string {
	l := strings.ToLower(line)
	for _, r := range classifyRules {
		if r.re.MatchString(l) {
			return r.typ
		}
	}
	return models.ActivityMessage
}
