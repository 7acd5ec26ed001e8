package video

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cocosip/go-video-codec/codec"
)

// Source is the tagged variant describing where input frames come from.
// Loading image files or demuxing AVI containers is a collaborator's job;
// this package only parses selectors and accepts materialised frames.
type Source interface {
	isSource()
}

// ImageSequence selects numbered image files prefix<index>suffix, with the
// index zero-padded to PadWidth digits
type ImageSequence struct {
	Prefix   string
	Suffix   string
	Start    int
	End      int
	PadWidth int
}

func (ImageSequence) isSource() {}

// Paths expands the sequence into concrete file paths
func (s ImageSequence) Paths() []string {
	paths := make([]string, 0, s.End-s.Start+1)
	for i := s.Start; i <= s.End; i++ {
		paths = append(paths, fmt.Sprintf("%s%0*d%s", s.Prefix, s.PadWidth, i, s.Suffix))
	}
	return paths
}

// AVI selects a frame range of an AVI file. End < 0 means to end of file.
type AVI struct {
	Path  string
	Start int
	End   int
}

func (AVI) isSource() {}

// Frames carries pre-materialised packed YCbCr frames
type Frames struct {
	Data   [][]byte
	Width  int
	Height int
}

func (Frames) isSource() {}

// ParseSource parses a colon-separated selector:
//
//	prefix:start:end:suffix  image sequence
//	path:start:end           AVI frame range
//	path:start               AVI from start to end of file
//	path                     entire AVI
func ParseSource(s string) (Source, error) {
	parts := strings.Split(s, ":")

	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return nil, errors.Wrap(codec.ErrInvalidSource, "empty selector")
		}
		return AVI{Path: parts[0], End: -1}, nil

	case 2:
		start, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrapf(codec.ErrInvalidSource, "start %q", parts[1])
		}
		return AVI{Path: parts[0], Start: start, End: -1}, nil

	case 3:
		start, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrapf(codec.ErrInvalidSource, "start %q", parts[1])
		}
		end, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, errors.Wrapf(codec.ErrInvalidSource, "end %q", parts[2])
		}
		return AVI{Path: parts[0], Start: start, End: end}, nil

	case 4:
		start, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrapf(codec.ErrInvalidSource, "start %q", parts[1])
		}
		end, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, errors.Wrapf(codec.ErrInvalidSource, "end %q", parts[2])
		}
		if end < start {
			return nil, errors.Wrapf(codec.ErrInvalidSource, "range %d-%d", start, end)
		}
		return ImageSequence{
			Prefix:   parts[0],
			Suffix:   parts[3],
			Start:    start,
			End:      end,
			PadWidth: len(parts[2]),
		}, nil
	}

	return nil, errors.Wrapf(codec.ErrInvalidSource, "%d selector parts", len(parts))
}
