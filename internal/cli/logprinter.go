package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

var levelColors = map[string]*color.Color{
	"debug": color.New(color.FgHiWhite, color.Faint),
	"info":  color.New(color.FgHiWhite),
	"warn":  color.New(color.FgYellow),
	"error": color.New(color.FgRed),
}

var defaultLevelColor = color.New(color.FgHiWhite)

// Fields already rendered elsewhere in the line.
var consumedFields = map[string]bool{
	"time":      true,
	"level":     true,
	"message":   true,
	"tenant_id": true,
}

// PrettyPrintLogLine formats and prints a single JSON log line from the
// activity log stream. Unparseable lines are printed verbatim.
func PrettyPrintLogLine(line []byte) {
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		fmt.Printf("%s\n", string(line))
		return
	}

	level := str(m["level"])
	msg := str(m["message"])
	t := int64From(m["time"]) // milliseconds since epoch

	timestamp := ""
	if t > 0 {
		timestamp = time.UnixMilli(t).Local().Format("15:04:05.000")
	}

	lc := levelColors[level]
	if lc == nil {
		lc = defaultLevelColor
	}

	extras := make([]string, 0, len(m))
	for k, v := range m {
		if consumedFields[k] {
			continue
		}
		extras = append(extras, fmt.Sprintf("%s=%v", k, v))
	}

	lineOut := fmt.Sprintf("[%s] %s", timestamp, msg)
	if len(extras) > 0 {
		lineOut += "  " + strings.Join(extras, " ")
	}
	lc.Println(lineOut)
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func int64From(v any) int64 {
	if f, ok := v.(float64); ok {
		return int64(f)
	}
	return 0
}
