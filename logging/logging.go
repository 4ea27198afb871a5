//nolint:zerologlint
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var (
	logger  zerolog.Logger
	timeFmt = "01-02 15:04"
	prefix  = strings.Repeat(" ", len(timeFmt)+5) // level takes 3 + 2 spaces
)

func init() {
	InitLogger(os.Stderr, false)
}

// pad continuation lines so multi-line messages stay aligned under the level column
func fmtMessage(msg string) string {
	lines := strings.Split(msg, "\n")
	if len(lines) == 1 {
		return msg
	}
	for i := 1; i < len(lines); i++ {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

func InitLogger(out io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeFmt,
		FormatMessage: func(msgI interface{}) string {
			msg, _ := msgI.(string)
			return fmtMessage(msg)
		},
	}
	logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func DiscardLogger() { logger = zerolog.Nop() }

func GetLogger() *zerolog.Logger { return &logger }
func With() zerolog.Context      { return logger.With() }

func Info() *zerolog.Event         { return logger.Info() }
func Warn() *zerolog.Event         { return logger.Warn() }
func Error() *zerolog.Event        { return logger.Error() }
func Err(err error) *zerolog.Event { return logger.Err(err) }
func Debug() *zerolog.Event        { return logger.Debug() }
