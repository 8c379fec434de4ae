package accesslog

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/Toasterson/bastel-project-webhookinator/utils"
	"github.com/rs/zerolog"
)

const timeLayout = "2006/01/02 15:04:05.000"

type AccessLogger interface {
	Log(ctx context.Context, entry *Entry)
}

type Options struct {
	File    string
	Format  string
	Colored bool
}

// NewAccessLogger opens opts.File for appending. "/dev/stdout" writes to the
// process's standard output.
func NewAccessLogger(name string, opts Options) (AccessLogger, error) {
	if opts.File == "" {
		return nil, errors.New("accesslog file is required")
	}

	var writer io.Writer = os.Stdout
	if opts.File != "/dev/stdout" {
		file, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return nil, err
		}
		writer = file
	}

	return New(name, writer, opts)
}

// New builds a logger writing to writer. opts.File is ignored.
func New(name string, writer io.Writer, opts Options) (AccessLogger, error) {
	setupZerolog()

	switch opts.Format {
	case "text":
		output := zerolog.ConsoleWriter{
			Out:           writer,
			NoColor:       !opts.Colored,
			TimeFormat:    timeLayout,
			PartsOrder:    []string{zerolog.TimestampFieldName, "name", zerolog.MessageFieldName},
			FieldsExclude: []string{"name"},
		}
		label := utils.Colorize("["+name+"]", utils.ColorDarkGray, opts.Colored)
		return &logger{logger: zerolog.New(output).With().Str("name", label).Logger()}, nil
	case "json":
		return &logger{logger: zerolog.New(writer).With().Str("name", name).Logger(), structured: true}, nil
	default:
		return nil, errors.New("invalid format: " + opts.Format)
	}
}

var setupOnce sync.Once

func setupZerolog() {
	setupOnce.Do(func() {
		zerolog.TimeFieldFormat = timeLayout
		zerolog.TimestampFieldName = "ts"
	})
}

// logger writes one line per entry, either as a JSON object or as a
// console line.
type logger struct {
	logger     zerolog.Logger
	structured bool
}

func (l *logger) Log(ctx context.Context, entry *Entry) {
	event := l.logger.Log().Ctx(ctx).Timestamp()
	if l.structured {
		event.EmbedObject(entry).Send()
		return
	}
	event.Msg(entry.String())
}
