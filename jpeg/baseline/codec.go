package baseline

import (
	"github.com/cocosip/go-video-codec/codec"
)

// Codec implements the codec.Codec interface for baseline JPEG stills
type Codec struct{}

// NewCodec creates a new baseline JPEG codec
func NewCodec() *Codec {
	return &Codec{}
}

// Encode encodes the first frame of params as a baseline JPEG
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	if len(params.Frames) == 0 {
		return nil, codec.ErrInvalidParameter
	}

	opts := NewOptions()
	if params.Options != nil {
		o, ok := params.Options.(*Options)
		if !ok {
			return nil, codec.ErrInvalidParameter
		}
		if err := o.Validate(); err != nil {
			return nil, err
		}
		opts = o
	}

	return EncodeWithOptions(params.Frames[0], params.Width, params.Height, params.Components, opts)
}

// Name returns the human-readable name
func (c *Codec) Name() string {
	return "jpeg-baseline"
}

// MIMEType returns the media type of the produced bitstream
func (c *Codec) MIMEType() string {
	return "image/jpeg"
}

// Register the codec with the global registry
func init() {
	codec.Register(NewCodec())
}
