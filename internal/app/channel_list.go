package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// LoadChannelList reads the channel list file at path.
// A non-nil error together with specs means some lines were skipped.
func LoadChannelList(path string, now time.Time) ([]domain.ChannelSpec, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel list: %w", err)
	}
	defer file.Close()

	return ParseChannelList(file, now)
}

// ParseChannelList parses one channel per line: <url> [date_from [date_to]].
// Lines are split with shell quoting rules: '#' at the start of a token
// starts a comment and quotes group a token containing spaces, e.g.
// "3 months ago". Invalid lines are skipped and reported in the
// returned multierror. When a URL repeats, the last line's dates win and
// the first line's position is kept.
func ParseChannelList(r io.Reader, now time.Time) ([]domain.ChannelSpec, error) {
	var (
		specs []domain.ChannelSpec
		index = make(map[string]int)
		errs  *multierror.Error
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		tokens, err := shlex.Split(scanner.Text())
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidChannelLine, lineNo, err))
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) > 3 {
			errs = multierror.Append(errs, fmt.Errorf("%w: line %d: expected at most 3 fields, got %d",
				domain.ErrInvalidChannelLine, lineNo, len(tokens)))
			continue
		}

		spec := domain.ChannelSpec{URL: tokens[0]}
		if len(tokens) > 1 {
			spec.DateFrom = tokens[1]
		}
		if len(tokens) > 2 {
			spec.DateTo = tokens[2]
		}

		if _, err := domain.NewDateWindow(spec, now); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidChannelLine, lineNo, err))
			continue
		}

		if i, ok := index[spec.URL]; ok {
			specs[i] = spec
			continue
		}
		index[spec.URL] = len(specs)
		specs = append(specs, spec)
	}

	if err := scanner.Err(); err != nil {
		return specs, fmt.Errorf("failed to read channel list: %w", err)
	}

	return specs, errs.ErrorOrNil()
}
