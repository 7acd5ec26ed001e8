package video

import (
	"github.com/cocosip/go-video-codec/codec"
	"github.com/cocosip/go-video-codec/jpeg/common"
)

// Codec implements the codec.Codec interface for the motion-compensated
// video format
type Codec struct{}

// NewCodec creates a new video codec
func NewCodec() *Codec {
	return &Codec{}
}

// Encode encodes all frames of params into the video container
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	if len(params.Frames) == 0 {
		return nil, ErrNoFrames
	}
	if params.Components != 3 {
		return nil, common.ErrInvalidComponents
	}

	cfg := NewConfig()
	if params.Options != nil {
		o, ok := params.Options.(*Config)
		if !ok {
			return nil, codec.ErrInvalidParameter
		}
		cfg = o
	}

	enc, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}

	stream, _, err := enc.EncodeFrames(params.Frames, params.Width, params.Height)
	return stream, err
}

// Name returns the human-readable name
func (c *Codec) Name() string {
	return "mcv"
}

// MIMEType returns the media type of the produced bitstream
func (c *Codec) MIMEType() string {
	return "video/x-mcv"
}

// Register the codec with the global registry
func init() {
	codec.Register(NewCodec())
}
