package bot

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// apiLogger routes the Bot API client's own log lines (polling retries, debug dumps)
// into zerolog.
type apiLogger struct {
	logger zerolog.Logger
}

func (l apiLogger) Println(v ...any) {
	l.logger.Warn().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l apiLogger) Printf(format string, v ...any) {
	l.logger.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
